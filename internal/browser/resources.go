package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockResources fails requests whose resource type is listed in types.
// The hijack router stops with the page.
func blockResources(page *rod.Page, types []string) {
	blocked := blockSet(types)
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if shouldBlock(blocked, h.Request.Type()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
}

func blockSet(types []string) map[string]bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return set
}

// shouldBlock maps CDP resource types onto the plural config names.
func shouldBlock(set map[string]bool, t proto.NetworkResourceType) bool {
	switch lower := strings.ToLower(string(t)); lower {
	case "image":
		return set["images"]
	case "font":
		return set["fonts"]
	case "media":
		return set["media"]
	case "stylesheet":
		return set["stylesheets"]
	default:
		return set[lower]
	}
}
