package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func appendingMiddleware(name string, order *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*order = append(*order, name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestChain(t *testing.T) {
	t.Run("FirstListedRunsOutermost", func(t *testing.T) {
		var order []string
		h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		}), appendingMiddleware("outer", &order), appendingMiddleware("inner", &order))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, []string{"outer", "inner", "handler"}, order)
	})

	t.Run("NoMiddlewares", func(t *testing.T) {
		called := false
		h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			called = true
		}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		assert.True(t, called)
	})
}
