package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"koomia/api/internal/mail"
	"koomia/api/internal/models"
	"koomia/api/internal/queue"
	"koomia/api/internal/repository"
)

// MediaStore keeps uploaded objects in memory.
type MediaStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func NewMediaStore() *MediaStore {
	return &MediaStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *MediaStore) Put(_ context.Context, objectKey string, body io.Reader, _ int64, contentType string) (models.Media, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return models.Media{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectKey] = buf.Bytes()
	s.types[objectKey] = contentType
	return models.Media{URL: "memory://" + objectKey, ObjectKey: objectKey}, nil
}

func (s *MediaStore) Remove(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[objectKey]; !ok {
		return repository.ErrNotFound
	}
	delete(s.objects, objectKey)
	delete(s.types, objectKey)
	return nil
}

func (s *MediaStore) Object(objectKey string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[objectKey]
	return data, s.types[objectKey], ok
}

func (s *MediaStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Outbox records mail instead of queueing it.
type Outbox struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (o *Outbox) Enqueue(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
	return nil
}

func (o *Outbox) Messages() []mail.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mail.Message(nil), o.messages...)
}

// Last returns the most recent message of kind.
func (o *Outbox) Last(kind mail.Kind) (mail.Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.messages) - 1; i >= 0; i-- {
		if o.messages[i].Kind == kind {
			return o.messages[i], true
		}
	}
	return mail.Message{}, false
}

type OrderEvents struct {
	mu     sync.Mutex
	events []queue.OrderPlacedEvent
}

func (e *OrderEvents) PublishOrderPlaced(_ context.Context, event queue.OrderPlacedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func (e *OrderEvents) Events() []queue.OrderPlacedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]queue.OrderPlacedEvent(nil), e.events...)
}
