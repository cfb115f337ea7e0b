// Package broker implements spec.md §4.9/§5: the single background
// goroutine that owns an *engine.Engine for the lifetime of the dev
// server, fielding render/pipeline/mount requests and filesystem-change
// notifications over channels so no other goroutine ever touches the
// Engine directly.
package broker

// RenderBehavior controls whether RenderPage persists a re-rendered page
// to disk.
type RenderBehavior int

const (
	// Memory renders a page without writing it to output_dir.
	Memory RenderBehavior = iota
	// Write persists the rendered page to its target path, same as a
	// full build would.
	Write
)

// RenderedPage is what a successful RenderPage command returns.
type RenderedPage struct {
	Uri  string
	Html string
}

// RenderPageResult is EngineRequest<SearchKey, Result<Option<RenderedPage>>>
// collapsed into a single Go struct: Page is nil (not an error) when the
// search key resolves to no page, per spec.md §4.9.
type RenderPageResult struct {
	Page *RenderedPage
	Err  error
}

// command is the sealed set of messages the broker's engine loop accepts.
type command interface{ isCommand() }

type renderPageCmd struct {
	searchKey string
	reply     chan RenderPageResult
}

func (renderPageCmd) isCommand() {}

type processPipelinesCmd struct {
	uri   string
	reply chan error
}

func (processPipelinesCmd) isCommand() {}

type processMountsCmd struct {
	reply chan error
}

func (processMountsCmd) isCommand() {}

// FileEvent is one changed absolute path, already debounced by the
// caller (package watch's Watcher, or a test driving the broker
// directly).
type FileEvent struct {
	Path string
}

type filesystemUpdateCmd struct {
	events []FileEvent
}

func (filesystemUpdateCmd) isCommand() {}

type quitCmd struct{}

func (quitCmd) isCommand() {}

// BroadcastMessage is the sealed set of messages the broker fans out to
// the dev-server's WebSocket clients.
type BroadcastMessage interface{ isBroadcast() }

// ReloadPageMsg tells clients to refetch the current page.
type ReloadPageMsg struct{}

func (ReloadPageMsg) isBroadcast() {}

// NotifyMsg is a free-form status message for display.
type NotifyMsg struct{ Text string }

func (NotifyMsg) isBroadcast() {}
