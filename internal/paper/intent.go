package paper

// Intent is a typed command against a paper: Read navigates, Write
// annotates, Meta queries. The set is closed.
type Intent interface {
	isIntent()
}

// Read locates a single node of the given kind. Dispatched on its own it
// advances the cursor on success; inside a write batch it only probes.
type Read struct {
	Kind Kind      `json:"kind"`
	Ref  Reference `json:"ref"`
}

// WriteOp selects the mutation a write intent performs.
type WriteOp string

const (
	OpMark WriteOp = "mark"
	OpSkip WriteOp = "skip"
	OpNote WriteOp = "note"
)

// Write annotates the node located by a batch of read intents. Every
// read in the batch is evaluated in order, but only the last entry
// determines the target; if the last entry fails, the write fails.
type Write struct {
	Op    WriteOp `json:"op"`
	Reads []Read  `json:"reads"`
	Text  string  `json:"text,omitempty"` // note body, OpNote only
}

// MetaQuery selects which annotation count a meta intent reports.
type MetaQuery string

const (
	QueryMarked  MetaQuery = "marked"
	QuerySkipped MetaQuery = "skipped"
)

// Meta reports an annotation count. It never touches the cursor or the
// sequence.
type Meta struct {
	Query MetaQuery `json:"query"`
}

func (Read) isIntent()  {}
func (Write) isIntent() {}
func (Meta) isIntent()  {}
