package entry

// IndexProvider hands out strictly increasing entry indices. Indices are
// allocated only when an entry is actually emitted; skipped messages never
// consume one. Owned exclusively by one normalizer, so no locking.
type IndexProvider struct {
	next int
}

// Next returns a fresh index.
func (p *IndexProvider) Next() int {
	i := p.next
	p.next++
	return i
}

// Peek returns the index Next would return, without consuming it.
func (p *IndexProvider) Peek() int { return p.next }

// StreamCategory distinguishes the two coalescing streams.
type StreamCategory int

const (
	StreamAssistant StreamCategory = iota
	StreamThinking
)

// CoalesceBuffer accumulates consecutive streaming fragments of one category
// into a single logical, growing entry. At most one buffer is active at a
// time; a message of any other category closes it.
type CoalesceBuffer struct {
	content  string
	index    int
	category StreamCategory
	active   bool
}

// Append adds a fragment to the buffer. When the buffer is inactive or holds
// a different category, a new logical entry begins: alloc supplies its fresh
// index. It returns the entry index and the accumulated content.
func (b *CoalesceBuffer) Append(cat StreamCategory, fragment string, alloc func() int) (int, string) {
	if !b.active || b.category != cat {
		b.active = true
		b.category = cat
		b.index = alloc()
		b.content = ""
	}
	b.content += fragment
	return b.index, b.content
}

// Close discards the active buffer, if any. The next fragment of any
// category starts a fresh entry. No closing event is emitted.
func (b *CoalesceBuffer) Close() {
	b.active = false
	b.content = ""
}

// CloseOther discards the buffer only if it holds a different category.
func (b *CoalesceBuffer) CloseOther(cat StreamCategory) {
	if b.active && b.category != cat {
		b.Close()
	}
}

// MetadataCache captures session identifier and model from the first message
// that carries them. Content describing a field is produced at most once;
// the cached values are attached as metadata to every later entry.
type MetadataCache struct {
	sessionID       string
	model           string
	sessionReported bool
	modelReported   bool
}

// Observe records newly seen values. Empty arguments leave existing values
// untouched.
func (c *MetadataCache) Observe(sessionID, model string) {
	if sessionID != "" && c.sessionID == "" {
		c.sessionID = sessionID
	}
	if model != "" && c.model == "" {
		c.model = model
	}
}

// ReportSession returns the session id the first time it is called after the
// id is known; afterwards it returns "".
func (c *MetadataCache) ReportSession() string {
	if c.sessionID == "" || c.sessionReported {
		return ""
	}
	c.sessionReported = true
	return c.sessionID
}

// ReportModel returns the model the first time it is called after the model
// is known; afterwards it returns "".
func (c *MetadataCache) ReportModel() string {
	if c.model == "" || c.modelReported {
		return ""
	}
	c.modelReported = true
	return c.model
}

// Metadata returns the cached values for attaching to an entry.
func (c *MetadataCache) Metadata() Metadata {
	return Metadata{SessionID: c.sessionID, Model: c.model}
}

// Reset clears the cache for an explicit session restart.
func (c *MetadataCache) Reset() {
	*c = MetadataCache{}
}

// ToolRecord links a tool-invocation identifier to its emitted entry, so a
// later completion re-emits under the same index. Records are never removed;
// duplicate completions simply overwrite.
type ToolRecord struct {
	Entry Normalized
	Index int
}

// CorrelationTable maps dialect-defined tool-invocation identifiers to their
// entries. Owned exclusively by one normalizer.
type CorrelationTable struct {
	records map[string]ToolRecord
}

// Put records the entry emitted for id.
func (t *CorrelationTable) Put(id string, e Normalized) {
	if t.records == nil {
		t.records = make(map[string]ToolRecord)
	}
	t.records[id] = ToolRecord{Index: e.Index, Entry: e}
}

// Get looks up the record for id.
func (t *CorrelationTable) Get(id string) (ToolRecord, bool) {
	r, ok := t.records[id]
	return r, ok
}
