package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-map/internal/humastar"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/layers>; rel="layers"`,
		`</api/v1/basemaps>; rel="basemaps"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/layers>; rel="layers"`,
	},
	"/api/v1/layers": {
		`</api/v1/features>; rel="features"`,
		`</api/v1/layers/order>; rel="order"; method="PUT"`,
		`</api/v1/inspect>; rel="inspect"; method="POST"`,
	},
	"/api/v1/layers/{id}": {
		`</api/v1/layers>; rel="collection"`,
	},
	"/api/v1/features": {
		`</api/v1/layers>; rel="layers"`,
	},
	"/api/v1/basemaps": {
		`</api/v1/layers>; rel="layers"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link
// headers, including the actions of layer bodies.
func LinkTransformer() huma.Transformer {
	return humastar.LinkTransformer(links)
}
