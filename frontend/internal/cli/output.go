package cli

import (
	"github.com/itchan-dev/discussion/frontend/internal/controller"
	"github.com/itchan-dev/discussion/shared/domain"
)

type stateJSON struct {
	View     domain.View     `json:"view"`
	Category domain.Category `json:"category"`
	Sort     domain.Sort     `json:"sort"`
	Threads  []domain.Thread `json:"threads,omitempty"`
	Thread   *domain.Thread  `json:"thread,omitempty"`
	Replies  []domain.Reply  `json:"replies,omitempty"`
}

func snapshot(st controller.State) stateJSON {
	out := stateJSON{View: st.View, Category: st.Category, Sort: st.Sort}
	switch st.View {
	case domain.ViewList:
		out.Threads = st.Threads
	case domain.ViewThread:
		out.Thread = st.ActiveThread
		out.Replies = st.ActiveReplies
	}
	return out
}
