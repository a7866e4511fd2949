package httpkit

import (
	"net/http"
	"strings"
)

// MountAPI mounts routes under /api/{version} with scope middleware
//
//	httpkit.MountAPI(r, "v1", nil, func(api httpkit.Router) {
//	  registry.MountRoutes(api)
//	})
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountUnder(r, "/api/"+strings.TrimPrefix(version, "/"), mw, mount)
}

// MountAPIV1 is MountAPI for v1
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}
