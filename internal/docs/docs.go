// Package docs serves the OpenAPI description of the catalog API and a Scalar
// reference page that renders it.
package docs

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"net/http"
	"strings"
)

//go:embed openapi.yaml
var specYAML []byte

// specETag changes whenever the embedded description does, so browsers can
// revalidate the cached copy instead of refetching it.
var specETag = func() string {
	sum := sha256.Sum256(specYAML)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

const scalarCDN = "https://cdn.jsdelivr.net"

var docsCSP = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' " + scalarCDN + " 'unsafe-inline'",
	"style-src 'self' " + scalarCDN + " 'unsafe-inline'",
	"font-src 'self' " + scalarCDN + " data:",
	"img-src 'self' data: https:",
	"connect-src 'self'",
	"frame-ancestors 'self'",
}, "; ") + ";"

func HandleSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", specETag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, specETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(specYAML)
}

func HandleDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Security-Policy", docsCSP)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsHTML))
}

const docsHTML = `<!DOCTYPE html>
<html lang="es"><head>
  <title>TubeClone · Referencia de la API</title>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
</head><body>
  <script id="api-reference" data-url="/api/docs/openapi.yaml"
    data-configuration='{"hideDownloadButton":false,"defaultOpenAllTags":true}'></script>
  <script src="` + scalarCDN + `/npm/@scalar/api-reference"></script>
</body></html>`
