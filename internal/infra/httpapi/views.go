package httpapi

import (
	"deferred_notifier/internal/domain/notification"
	"deferred_notifier/internal/domain/notifytype"
	"deferred_notifier/internal/timeutil"
)

type notificationView struct {
	UUID         string               `json:"uuid"`
	Type         notifytype.Kind      `json:"type"`
	Arguments    notifytype.Arguments `json:"arguments"`
	ActiveStatus bool                 `json:"active_status"`
	CreatedUTC   string               `json:"created_utc"`
}

type rowView struct {
	Name        string `json:"name"`
	UUID        string `json:"uuid"`
	Content     string `json:"content"`
	UTCDatetime string `json:"utc_datetime"`
	Sent        bool   `json:"sent"`
}

type createResponse struct {
	OK      bool   `json:"ok"`
	UUID    string `json:"uuid,omitempty"`
	Message string `json:"message,omitempty"`
}

type infoResponse struct {
	OK           bool             `json:"ok"`
	Notification notificationView `json:"notification"`
	Rows         []rowView        `json:"rows"`
}

type statusResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func toNotificationView(n *notification.Notification) notificationView {
	args := n.Arguments
	if args == nil {
		args = notifytype.Arguments{}
	}
	return notificationView{
		UUID:         n.ID,
		Type:         n.Kind,
		Arguments:    args,
		ActiveStatus: n.Active,
		CreatedUTC:   timeutil.FormatUTC(n.CreatedAt),
	}
}

func toRowViews(rows []notification.Row) []rowView {
	out := make([]rowView, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowView{
			Name:        r.Name,
			UUID:        r.NotificationID,
			Content:     r.Content,
			UTCDatetime: timeutil.FormatUTC(r.Instant),
			Sent:        r.Sent,
		})
	}
	return out
}
