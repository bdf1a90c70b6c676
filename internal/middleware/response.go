package middleware

import (
	"net/http"

	"github.com/linkvault/companion-core/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
