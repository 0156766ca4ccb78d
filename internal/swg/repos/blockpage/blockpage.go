// Package blockpage supplies the HTML body substituted for blocked requests.
package blockpage

import (
	"os"

	"github.com/haukened/swgd/internal/swg/common/log"
)

// fallbackHTML is served when no external asset is available.
const fallbackHTML = `<!DOCTYPE html>
<html>
<head><title>Access Denied</title></head>
<body>
<h1>Access Denied!</h1>
<p>Blocked by filter.</p>
</body>
</html>
`

// Page holds the block page content loaded once at startup.
type Page struct {
	content []byte
}

// Load reads the block page asset from path. A missing or unreadable file is
// not fatal: the inline fallback page is used and a warning is logged.
func Load(path string, logger log.Logger) *Page {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if path == "" {
		logger.Warn(nil, "No block page configured, using built-in fallback")
		return &Page{content: []byte(fallbackHTML)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn(map[string]any{
			"path":  path,
			"error": err.Error(),
		}, "Block page could not be loaded, using built-in fallback")
		return &Page{content: []byte(fallbackHTML)}
	}
	logger.Debug(map[string]any{"path": path, "bytes": len(data)}, "Block page loaded")
	return &Page{content: data}
}

// Content returns the HTML body to serve with a block response.
func (p *Page) Content() []byte {
	return p.content
}
