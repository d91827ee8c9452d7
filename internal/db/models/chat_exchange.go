// chat_exchange.go defines the ChatExchange audit record persisted for every
// successful relay call. username is denormalized on purpose: the trail stays
// readable even if the originating identity disappears. Field overwrites are
// destructive; there is no versioning of previous values.
package models

import "time"

// ChatExchange records one relayed conversation turn
type ChatExchange struct {
	ID            int64     `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	ProviderReply string    `db:"provider_reply" json:"chatGPTResponse"`
	AdminReply    string    `db:"admin_reply" json:"adminResponse"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}
