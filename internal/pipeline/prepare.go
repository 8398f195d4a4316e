package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/citeshield/internal/chunker"
	"github.com/dgallion1/citeshield/internal/document"
	"github.com/dgallion1/citeshield/internal/progress"
	"github.com/dgallion1/citeshield/internal/sections"
	"github.com/dgallion1/citeshield/internal/tools"
)

// Prepare chunks doc and builds the session that serves it. Events emitted
// during the run are recorded on the session and forwarded to obs, which
// may be nil. Chunking errors are returned unchanged.
func Prepare(doc *document.Document, cfg chunker.Config, overviewLimit int, obs progress.Observer) (*Session, error) {
	id := uuid.NewString()
	events := progress.NewLog(obs)
	events.Observe(progress.Event{Kind: progress.KindRunStarted, RunID: id, Document: doc.Name, Detail: doc.Format})

	chunks, err := chunker.Chunk(doc.Text, cfg)
	if err != nil {
		return nil, err
	}
	dir := sections.New(doc.Name, chunks, overviewLimit)
	events.Observe(progress.Event{
		Kind:     progress.KindDocumentChunked,
		RunID:    id,
		Document: doc.Name,
		Chunks:   len(chunks),
	})

	now := time.Now()
	return &Session{
		ID:           id,
		DocumentName: doc.Name,
		Title:        doc.Title,
		Format:       doc.Format,
		ContentHash:  ContentHashHex([]byte(doc.Text)),
		Annotated:    chunker.Annotate(doc.Text),
		Directory:    dir,
		Tools:        tools.NewDispatcher(id, dir, events),
		Events:       events,
		CreatedAt:    now,
		lastAccess:   now,
	}, nil
}
