package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Query
		wantErr bool
	}{
		{
			name:    "plain json",
			content: `{"city":"lisboa","order_by":"power_desc","limit":1}`,
			want:    Query{City: "lisboa", OrderBy: OrderPowerDesc, Limit: 1},
		},
		{
			name:    "fenced json",
			content: "```json\n{\"city\":\"porto\",\"order_by\":\"price_asc\",\"limit\":1}\n```",
			want:    Query{City: "porto", OrderBy: OrderPriceAsc, Limit: 1},
		},
		{
			name:    "chatter around json",
			content: "Here is the query: {\"city\":\"faro\",\"only_available\":true,\"order_by\":\"price_asc\",\"limit\":1} hope that helps",
			want:    Query{City: "faro", OnlyAvailable: true, OrderBy: OrderPriceAsc, Limit: 1},
		},
		{
			name:    "missing ordering and limit get defaults",
			content: `{"city":"braga"}`,
			want:    Query{City: "braga", OrderBy: OrderPriceAsc, Limit: 1},
		},
		{
			name:    "no json at all",
			content: "desculpe, nao percebi",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseQueryJSON(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %+v got %+v", tt.want, got)
		})
	}
}

func TestLLMTranslatorRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","choices":[{"message":{"role":"assistant","content":"{\"city\":\"aveiro\",\"order_by\":\"composite\",\"limit\":1}"}}]}`))
	}))
	defer srv.Close()

	tr := NewLLMTranslator("test-key", "test-model", srv.URL, time.Second)
	got, err := tr.Translate(context.Background(), "melhor sitio para carregar em aveiro")
	require.NoError(t, err)
	assert.Equal(t, "aveiro", got.City)
	assert.Equal(t, OrderComposite, got.OrderBy)
	assert.Equal(t, int64(1), tr.Calls())
}

func TestLLMTranslatorRejectsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tr := NewLLMTranslator("test-key", "", srv.URL, time.Second)
	_, err := tr.Translate(context.Background(), "qualquer coisa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, int64(1), tr.Calls())
}
