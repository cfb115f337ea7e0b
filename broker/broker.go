package broker

import (
	"log"

	"github.com/pylon-ssg/pylon/engine"
	"github.com/pylon-ssg/pylon/library"
)

// Broker serialises every interaction with an *engine.Engine onto a
// single goroutine, per spec.md §4.9/§5. HTTP handlers and the
// filesystem watcher are many-goroutine callers; Broker.Run is the one
// place that ever touches the Engine.
type Broker struct {
	engine   *engine.Engine
	behavior RenderBehavior

	cmds      chan command
	broadcast chan BroadcastMessage
}

// New returns a Broker owning e. Call Run in its own goroutine to start
// the engine loop, then use the Broker's request methods from any
// goroutine to talk to it.
func New(e *engine.Engine, behavior RenderBehavior) *Broker {
	return &Broker{
		engine:    e,
		behavior:  behavior,
		cmds:      make(chan command, 32),
		broadcast: make(chan BroadcastMessage, 256),
	}
}

// Broadcast returns the channel dev-server WebSocket fan-out reads
// ReloadPage/Notify messages from.
func (b *Broker) Broadcast() <-chan BroadcastMessage { return b.broadcast }

// Run is the engine loop: it blocks on b.cmds, processing one command to
// completion before receiving the next, per spec.md §5's ordering
// guarantees. It returns when a Quit command is processed.
func (b *Broker) Run() {
	for cmd := range b.cmds {
		switch c := cmd.(type) {
		case renderPageCmd:
			c.reply <- b.handleRenderPage(c.searchKey)
		case processPipelinesCmd:
			c.reply <- b.engine.ProcessPipelinesForUri(c.uri)
		case processMountsCmd:
			c.reply <- b.engine.ProcessMounts()
		case filesystemUpdateCmd:
			b.handleFilesystemUpdate(c.events)
		case quitCmd:
			return
		}
	}
}

func (b *Broker) handleRenderPage(searchKey string) RenderPageResult {
	p, ok := b.engine.Library.Get(searchKey)
	if !ok {
		return RenderPageResult{}
	}
	html, err := b.engine.RenderOnePage(p, b.behavior == Write)
	if err != nil {
		return RenderPageResult{Err: err}
	}
	return RenderPageResult{Page: &RenderedPage{Uri: p.Uri().String(), Html: html}}
}

// handleFilesystemUpdate classifies every changed path under the
// project root and applies the reloads it implies, rules before
// templates, per spec.md §4.9 ("rules may reference templates").
func (b *Broker) handleFilesystemUpdate(events []FileEvent) {
	ep := b.engine.Paths
	reloadRules := false
	reloadTemplates := false
	var mdPaths []string

	for _, ev := range events {
		switch {
		case ev.Path == ep.AbsRuleScript().String():
			reloadRules = true
		case underDir(ev.Path, ep.AbsTemplateDir().String()):
			reloadTemplates = true
		case underDir(ev.Path, ep.AbsSrcDir().String()) && hasSuffix(ev.Path, ".md"):
			mdPaths = append(mdPaths, ev.Path)
		}
	}

	if reloadRules {
		if err := b.engine.ReloadRules(); err != nil {
			log.Printf("broker: reloading rules: %v", err)
		}
	}
	if reloadTemplates {
		if err := b.engine.ReloadTemplates(); err != nil {
			log.Printf("broker: reloading templates: %v", err)
		}
	}
	for _, p := range mdPaths {
		if err := b.engine.UpdatePage(mustAbs(p)); err != nil {
			log.Printf("broker: updating page %s: %v", p, err)
		}
	}

	b.broadcastNonBlocking(ReloadPageMsg{})
}

func (b *Broker) broadcastNonBlocking(msg BroadcastMessage) {
	select {
	case b.broadcast <- msg:
	default:
		log.Printf("broker: broadcast channel full, dropping %T", msg)
	}
}

// RenderPage asks the engine to look up searchKey, lint and render it,
// and (per the Broker's RenderBehavior) persist it, blocking until the
// engine goroutine replies.
func (b *Broker) RenderPage(searchKey string) RenderPageResult {
	reply := make(chan RenderPageResult, 1)
	b.cmds <- renderPageCmd{searchKey: searchKey, reply: reply}
	return <-reply
}

// ProcessPipelines resolves uri to its on-disk HTML file and runs
// pipelines for whichever assets it references are still missing.
func (b *Broker) ProcessPipelines(uri string) error {
	reply := make(chan error, 1)
	b.cmds <- processPipelinesCmd{uri: uri, reply: reply}
	return <-reply
}

// ProcessMounts runs every declared mount once.
func (b *Broker) ProcessMounts() error {
	reply := make(chan error, 1)
	b.cmds <- processMountsCmd{reply: reply}
	return <-reply
}

// FilesystemUpdate enqueues an already-debounced batch of changed paths
// for the engine goroutine to classify and apply.
func (b *Broker) FilesystemUpdate(events []FileEvent) {
	b.cmds <- filesystemUpdateCmd{events: events}
}

// Quit stops the engine loop after the current command finishes.
func (b *Broker) Quit() {
	b.cmds <- quitCmd{}
}

// Library returns the broker's engine's current Library, for read-only
// use by HTTP handlers that need to resolve a URI before issuing a
// RenderPage request (e.g. checking existence for a 404 vs. a render).
func (b *Broker) Library() *library.Library { return b.engine.Library }
