package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultPublishPrefix is the topic prefix used when none is configured.
const DefaultPublishPrefix = "floormesh"

const publishQueueSize = 64

// RoomSummary is the published view of one room.
type RoomSummary struct {
	ID       string  `json:"id"`
	RoomType string  `json:"roomType,omitempty"`
	Label    string  `json:"label"`
	Area     float64 `json:"area"` // cm²
	Center   Point   `json:"center"`
}

// FloorSummary is the published view of one floor.
type FloorSummary struct {
	FloorID    string        `json:"floorId"`
	Name       string        `json:"name"`
	Index      int           `json:"index"`
	Walls      int           `json:"walls"`
	Features   int           `json:"features"`
	TotalArea  float64       `json:"totalArea"` // cm²
	Rooms      []RoomSummary `json:"rooms"`
	Timestamp  int64         `json:"timestamp"`
	ChangeKind ChangeKind    `json:"change,omitempty"`
}

// Summarize builds the summary of f.
func Summarize(f Floor) FloorSummary {
	s := FloorSummary{
		FloorID:   f.ID,
		Name:      f.Name,
		Index:     f.Index,
		Walls:     len(f.Walls),
		Features:  len(f.Doors) + len(f.Windows) + len(f.Columns) + len(f.Staircases) + len(f.Components),
		TotalArea: f.TotalArea(),
		Rooms:     make([]RoomSummary, 0, len(f.Rooms)),
	}
	for _, r := range f.Rooms {
		s.Rooms = append(s.Rooms, RoomSummary{
			ID:       r.ID,
			RoomType: r.RoomType,
			Label:    LookupRoomType(r.RoomType).Label,
			Area:     r.Area,
			Center:   r.Center,
		})
	}
	return s
}

// Publisher publishes floor summaries, GeoJSON and thumbnails to MQTT.
// Editor changes are queued and published from Run so the editing
// goroutine never waits on the broker.
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	summaries     map[string]*FloorSummary
	queue         chan ChangeEvent
	mu            sync.RWMutex
}

// NewPublisher creates a new floor publisher
// If client is nil, publishing is disabled (for testing)
func NewPublisher(client mqtt.Client) *Publisher {
	prefix := os.Getenv("MQTT_PUBLISH_PREFIX")
	if prefix == "" {
		prefix = DefaultPublishPrefix
	}

	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,
		retain:        true, // late subscribers get the current plan
		summaries:     make(map[string]*FloorSummary),
		queue:         make(chan ChangeEvent, publishQueueSize),
	}
}

// SetPrefix overrides the topic prefix.
func (p *Publisher) SetPrefix(prefix string) {
	if prefix != "" {
		p.publishPrefix = prefix
	}
}

// Listener returns an editor listener that queues changes for Run.
// Changes are dropped with a warning when the queue is full.
func (p *Publisher) Listener() Listener {
	return func(ev ChangeEvent) {
		select {
		case p.queue <- ev:
		default:
			log.Printf("Warning: publish queue full, dropping %s change for floor %s", ev.Kind, ev.Floor.ID)
		}
	}
}

// Run publishes queued changes until ctx is done, then drains what is
// already queued.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case ev := <-p.queue:
			p.handle(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-p.queue:
					p.handle(ev)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) handle(ev ChangeEvent) {
	var err error
	if ev.Kind == ChangeThumbnail {
		err = p.PublishThumbnail(ev.Floor)
	} else {
		err = p.PublishFloor(ev.Floor, ev.Kind)
	}
	if err != nil {
		log.Printf("[MQTT] Error publishing %s change for floor %s: %v", ev.Kind, ev.Floor.ID, err)
	}
}

func (p *Publisher) connected() error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}
	return nil
}

func (p *Publisher) publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// PublishFloor publishes the summary and GeoJSON of f, then the combined
// summary of every floor seen so far.
func (p *Publisher) PublishFloor(f Floor, kind ChangeKind) error {
	if err := p.connected(); err != nil {
		return err
	}

	summary := Summarize(f)
	summary.Timestamp = time.Now().Unix()
	summary.ChangeKind = kind

	p.mu.Lock()
	p.summaries[f.ID] = &summary
	p.mu.Unlock()

	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := p.publish(p.floorTopic(f.ID, "summary"), payload); err != nil {
		return err
	}

	geo, err := FloorFeatureCollection(f).MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling geojson: %w", err)
	}
	if err := p.publish(p.floorTopic(f.ID, "geojson"), geo); err != nil {
		return err
	}

	log.Printf("Published floor %s (%s): %d walls, %d rooms, %.2f m²",
		f.ID, kind, summary.Walls, len(summary.Rooms), summary.TotalArea/1e4)

	return p.publishCombined()
}

// PublishThumbnail publishes the cached PNG of f, if any.
func (p *Publisher) PublishThumbnail(f Floor) error {
	if err := p.connected(); err != nil {
		return err
	}
	if len(f.Thumbnail) == 0 {
		return nil
	}
	return p.publish(p.floorTopic(f.ID, "thumbnail"), f.Thumbnail)
}

func (p *Publisher) floorTopic(floorID, leaf string) string {
	return fmt.Sprintf("%s/floors/%s/%s", p.publishPrefix, floorID, leaf)
}

// publishCombined publishes all floor summaries to the combined topic
func (p *Publisher) publishCombined() error {
	summaries := p.GetAllSummaries()
	list := make([]FloorSummary, 0, len(summaries))
	for _, s := range summaries {
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Index < list[j].Index })

	message := map[string]interface{}{
		"floors":    list,
		"timestamp": time.Now().Unix(),
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling combined summaries: %w", err)
	}
	return p.publish(fmt.Sprintf("%s/floors", p.publishPrefix), payload)
}

// GetSummary returns the last published summary for a floor
func (p *Publisher) GetSummary(floorID string) (*FloorSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.summaries[floorID]
	if !ok {
		return nil, false
	}
	c := *s
	return &c, true
}

// GetAllSummaries returns copies of every published summary
func (p *Publisher) GetAllSummaries() map[string]*FloorSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]*FloorSummary, len(p.summaries))
	for id, s := range p.summaries {
		c := *s
		out[id] = &c
	}
	return out
}

// ClearFloor forgets a deleted floor. Its per-floor topics are overwritten
// with empty retained messages so the broker drops them, and the combined
// summary is republished without it.
func (p *Publisher) ClearFloor(floorID string) error {
	p.mu.Lock()
	delete(p.summaries, floorID)
	p.mu.Unlock()

	if err := p.connected(); err != nil {
		return err
	}
	for _, leaf := range []string{"summary", "geojson", "thumbnail"} {
		topic := p.floorTopic(floorID, leaf)
		token := p.client.Publish(topic, p.qos, true, []byte{})
		if token.WaitTimeout(2*time.Second) && token.Error() != nil {
			return fmt.Errorf("clearing %s: %w", topic, token.Error())
		}
	}
	log.Printf("Cleared floor %s", floorID)
	return p.publishCombined()
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
