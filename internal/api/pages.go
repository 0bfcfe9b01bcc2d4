// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"net/http"
	"strings"

	"github.com/taibuivan/talentgate/internal/guard"
	"github.com/taibuivan/talentgate/internal/platform/respond"
	"github.com/taibuivan/talentgate/internal/session"
)

// pageDescriptor is the generic body of a guarded page the portal has no
// server-side data for. The client picks the screen by name.
type pageDescriptor struct {
	Name    string          `json:"page"`
	Path    string          `json:"path"`
	Session session.Session `json:"session"`
}

// servePage answers any page the guard decided to render.
func servePage(writer http.ResponseWriter, request *http.Request) {
	path := guard.Normalize(request.URL.Path)
	respond.OK(writer, pageDescriptor{
		Name:    pageName(path),
		Path:    path,
		Session: session.FromContext(request.Context()),
	})
}

// pageName turns /candidate/browse-jobs into candidate_browse_jobs, and / into home.
func pageName(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "home"
	}
	return strings.NewReplacer("/", "_", "-", "_").Replace(trimmed)
}
