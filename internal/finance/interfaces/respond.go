package interfaces

import (
	"encoding/json"
	"net/http"
)

func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// RespondError writes the standard error envelope. Field errors, when given, are rendered under
// "errors" keyed by field name.
func RespondError(w http.ResponseWriter, status int, message string, fieldErrors ...map[string]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}

	if len(fieldErrors) > 0 && len(fieldErrors[0]) > 0 {
		payload["errors"] = fieldErrors[0]
	}

	RespondJSON(w, status, payload)
}
