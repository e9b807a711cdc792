package events

import (
	"github.com/dshills/dashflow/internal/event/topic"
	"github.com/dshills/dashflow/internal/model"
)

// Dashboard event topics.
const (
	TopicDashboardInitialized topic.Topic = "dash.evt.initialized"
	TopicDashboardSaved       topic.Topic = "dash.evt.saved"
	TopicDashboardCopySaved   topic.Topic = "dash.evt.copy_saved"
	TopicDashboardRenamed     topic.Topic = "dash.evt.renamed"
	TopicDashboardReset       topic.Topic = "dash.evt.reset"
	TopicDashboardDeleted     topic.Topic = "dash.evt.deleted"
)

// DashboardInitialized is published when a dashboard is loaded into the session.
type DashboardInitialized struct {
	Dashboard *model.Dashboard `json:"dashboard"`
}

func (DashboardInitialized) EventType() topic.Topic { return TopicDashboardInitialized }

// DashboardSaved is published after Save.
type DashboardSaved struct {
	Dashboard *model.Dashboard `json:"dashboard"`

	// NewDashboard is true when the save created the dashboard.
	NewDashboard bool `json:"newDashboard"`
}

func (DashboardSaved) EventType() topic.Topic { return TopicDashboardSaved }

// DashboardCopySaved is published after SaveAs with the persisted copy.
type DashboardCopySaved struct {
	Dashboard *model.Dashboard `json:"dashboard"`
}

func (DashboardCopySaved) EventType() topic.Topic { return TopicDashboardCopySaved }

// DashboardRenamed is published after Rename.
type DashboardRenamed struct {
	Title string `json:"title"`
}

func (DashboardRenamed) EventType() topic.Topic { return TopicDashboardRenamed }

// DashboardReset is published after Reset with the dashboard reverted to.
type DashboardReset struct {
	Dashboard *model.Dashboard `json:"dashboard"`
}

func (DashboardReset) EventType() topic.Topic { return TopicDashboardReset }

// DashboardDeleted is published after Delete.
type DashboardDeleted struct {
	Ref model.Ref `json:"ref"`
}

func (DashboardDeleted) EventType() topic.Topic { return TopicDashboardDeleted }
