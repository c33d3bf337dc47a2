// Package capability declares the narrow interfaces the engine consumes from
// external collaborators. Concrete channel transports and CRM stores live
// outside this service.
package capability

import (
	"context"

	"github.com/jornadahq/jornada/model"
)

type MessageRef string

type HandoffRef string

// Messenger sends outbound content to a subject over its channel.
type Messenger interface {
	SendMessage(ctx context.Context, subject model.SubjectRef, content string, buttons []model.Button) (MessageRef, error)
	SendAttachment(ctx context.Context, subject model.SubjectRef, kind model.NodeType, url string, caption string) (MessageRef, error)
}

// ContactStore reads and writes named CRM fields for a subject.
type ContactStore interface {
	ReadField(ctx context.Context, subject model.SubjectRef, field string) (model.Value, bool, error)
	WriteField(ctx context.Context, subject model.SubjectRef, field string, value model.Value) error
}

// HandoffService transfers a subject to a human operator.
type HandoffService interface {
	RequestHuman(ctx context.Context, subject model.SubjectRef, queue string) (HandoffRef, error)
}
