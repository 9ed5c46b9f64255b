package domain

import (
	"strings"
	"time"
)

// NoticeType classifies an administrative notice ("aviso").
type NoticeType string

const (
	NoticeScheduledOutage NoticeType = "corte_programado"
	NoticeMaintenance     NoticeType = "mantenimiento"
	NoticeTariffChange    NoticeType = "cambio_tarifa"
	NoticeGeneralInfo     NoticeType = "informacion_general"
	NoticePaymentReminder NoticeType = "recordatorio_pago"
)

var noticeLabels = map[NoticeType]string{
	NoticeScheduledOutage: "Corte Programado",
	NoticeMaintenance:     "Mantenimiento",
	NoticeTariffChange:    "Cambio de Tarifa",
	NoticeGeneralInfo:     "Información General",
	NoticePaymentReminder: "Recordatorio de Pago",
}

// ParseNoticeType validates a notice type tag.
func ParseNoticeType(s string) (NoticeType, bool) {
	t := NoticeType(strings.ToLower(strings.TrimSpace(s)))
	_, ok := noticeLabels[t]
	return t, ok
}

// Label returns the display name of the type.
func (t NoticeType) Label() string {
	if l, ok := noticeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Notice is a message addressed to one customer.
type Notice struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customerId"`
	Date       time.Time  `json:"date"`
	Type       NoticeType `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Sent       bool       `json:"sent"`
	SentAt     *time.Time `json:"sentAt,omitempty"`
}

// MarkSent records a delivery at now. Calling it again overwrites the timestamp.
func (n *Notice) MarkSent(now time.Time) {
	n.Sent = true
	n.SentAt = &now
}
