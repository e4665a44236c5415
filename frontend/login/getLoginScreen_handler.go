package login

import (
	"html"
	"net/http"
	"strings"

	sharedhtml "boxscan/frontend/shared/html"
)

// GetLoginScreenHandler renders the login screen.
func GetLoginScreenHandler(w http.ResponseWriter, r *http.Request) {
	errorMessage := r.URL.Query().Get("error")

	var b strings.Builder
	b.WriteString("<main class=\"login\">\n<h1>Boxscan</h1>\n")
	if errorMessage != "" {
		b.WriteString("<p class=\"error\">")
		b.WriteString(html.EscapeString(errorMessage))
		b.WriteString("</p>\n")
	}
	b.WriteString("<form method=\"POST\" action=\"/login\">\n")
	b.WriteString("<label>Username <input type=\"text\" name=\"username\" autofocus></label>\n")
	b.WriteString("<label>Password <input type=\"password\" name=\"password\"></label>\n")
	b.WriteString("<button type=\"submit\">Sign in</button>\n")
	b.WriteString("</form>\n</main>")

	if err := sharedhtml.RenderLayout(w, "Sign in", b.String()); err != nil {
		http.Error(w, "failed to render login screen", http.StatusInternalServerError)
	}
}
