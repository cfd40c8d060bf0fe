package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var (
	// AllowedMethods are the methods browsers may use cross-origin.
	AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	// AllowedHeaders are the request headers browsers may send cross-origin.
	AllowedHeaders = []string{"Content-Type", "Authorization", "X-Client-Info", "Apikey"}
)

// CORS 返回跨域中间件。origins 为空时放行所有来源。
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: AllowedMethods,
		AllowedHeaders: AllowedHeaders,
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	})
}

// WriteCORSHeaders sets the permissive header set on a single response.
// Used by endpoints that answer bare OPTIONS requests themselves.
func WriteCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", strings.Join(AllowedMethods, ", "))
	h.Set("Access-Control-Allow-Headers", strings.Join(AllowedHeaders, ", "))
}
