package progress

// Sink receives progress events from the download monitors. Rows are
// keyed by an opaque id chosen by the caller; every method is safe for
// concurrent use.
//
// Advance is called once per streamed chunk and must stay cheap, so it
// only bumps an atomic counter. All structural changes go through the
// display's message queue and are applied by the render loop.
type Sink interface {
	AddRow(id, label string)
	SetTotal(id string, total int64)
	Advance(id string, n int64)
	RemoveRow(id string)
	FinishRow(id string, ok bool)
	Println(line string)
}
