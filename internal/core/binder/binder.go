// Package binder keeps document lines and timer records bound to each other
// through stable ids, so timers follow their text as lines are edited,
// inserted and deleted.
package binder

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"zentimer/internal/core/duration"
	"zentimer/internal/core/model"
	"zentimer/internal/core/timekeeper"
)

// Keeper is the part of the timer store the binder drives.
type Keeper interface {
	Create(id string, durationMs int64)
	ApplyDuration(id string, durationMs int64)
	Delete(id string)
	Record(id string) (model.TimerRecord, bool)
	Records() []model.TimerRecord
	View(id string) (timekeeper.View, bool)
}

// Options contains optional collaborators for Binder.
type Options struct {
	// NewID mints record ids. Defaults to random UUIDs.
	NewID func() string
}

// LineView is the render model of one document line.
type LineView struct {
	Index int
	Text  string
	// Token is the duration expression as written, empty without a timer.
	Token string
	Label string
	ID    string
	Timer *timekeeper.View
}

type line struct {
	text string
	id   string
	// ms is the duration the text parsed to when it was last bound.
	ms int64
}

// Binder owns the document lines and their line index.
type Binder struct {
	mu       sync.Mutex
	keeper   Keeper
	newID    func() string
	lines    []line
	onChange []func()
}

// New creates an empty binder over keeper.
func New(keeper Keeper, options Options) *Binder {
	if options.NewID == nil {
		options.NewID = uuid.NewString
	}
	return &Binder{
		keeper: keeper,
		newID:  options.NewID,
	}
}

// OnChange registers a hook called after the text or index changed.
func (binder *Binder) OnChange(hook func()) {
	binder.mu.Lock()
	binder.onChange = append(binder.onChange, hook)
	binder.mu.Unlock()
}

// SetLine replaces the text of one line and re-parses only that line.
// Setting a line past the end grows the document with empty lines.
func (binder *Binder) SetLine(index int, text string) {
	if index < 0 {
		return
	}
	binder.mu.Lock()
	changed := binder.setLineLocked(index, text)
	binder.mu.Unlock()
	if changed {
		binder.notify()
	}
}

// InsertLine inserts a line before index, shifting later lines down.
func (binder *Binder) InsertLine(index int, text string) {
	binder.mu.Lock()
	binder.insertLineLocked(index, text)
	binder.mu.Unlock()
	binder.notify()
}

// DeleteLine removes one line and its timer, shifting later lines up.
func (binder *Binder) DeleteLine(index int) {
	binder.mu.Lock()
	deleted := binder.deleteLineLocked(index)
	binder.mu.Unlock()
	if deleted {
		binder.notify()
	}
}

// ApplyText reconciles a whole-document edit, the form multi-line editors
// report, into line edits, inserts and deletes. Lines shared with the old
// text at the start and the end keep their ids untouched.
func (binder *Binder) ApplyText(text string) {
	next := strings.Split(text, "\n")

	binder.mu.Lock()
	previous := make([]string, len(binder.lines))
	for position, current := range binder.lines {
		previous[position] = current.text
	}

	prefix := 0
	for prefix < len(previous) && prefix < len(next) && previous[prefix] == next[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(previous)-prefix && suffix < len(next)-prefix &&
		previous[len(previous)-1-suffix] == next[len(next)-1-suffix] {
		suffix++
	}

	oldMiddle := len(previous) - prefix - suffix
	newMiddle := len(next) - prefix - suffix
	changed := false
	shared := min(oldMiddle, newMiddle)
	for offset := 0; offset < shared; offset++ {
		if binder.setLineLocked(prefix+offset, next[prefix+offset]) {
			changed = true
		}
	}
	for offset := shared; offset < newMiddle; offset++ {
		binder.insertLineLocked(prefix+offset, next[prefix+offset])
		changed = true
	}
	for offset := shared; offset < oldMiddle; offset++ {
		if binder.deleteLineLocked(prefix + shared) {
			changed = true
		}
	}
	binder.mu.Unlock()

	if changed {
		binder.notify()
	}
}

// Load rebinds a persisted document. Ids that no longer match a parsing
// line or a known record are dropped, lines that parse without an id get a
// fresh record, and records no line refers to are deleted.
func (binder *Binder) Load(text string, index model.LineIndex) {
	texts := strings.Split(text, "\n")

	binder.mu.Lock()
	binder.lines = make([]line, len(texts))
	bound := make(map[string]bool, len(index))
	for position, lineText := range texts {
		binder.lines[position].text = lineText
		id := ""
		if position < len(index) {
			id = index[position]
		}
		if id != "" && bound[id] {
			id = ""
		}
		token, ok := duration.Parse(lineText)
		if !ok {
			continue
		}
		record, exists := binder.keeper.Record(id)
		if id == "" || !exists {
			id = binder.newID()
			binder.keeper.Create(id, token.Milliseconds)
		} else if record.Status == model.StatusIdle && record.DefaultDurationMs != token.Milliseconds {
			binder.keeper.ApplyDuration(id, token.Milliseconds)
		}
		bound[id] = true
		binder.lines[position].id = id
		binder.lines[position].ms = token.Milliseconds
	}
	for _, record := range binder.keeper.Records() {
		if !bound[record.ID] {
			binder.keeper.Delete(record.ID)
		}
	}
	binder.mu.Unlock()

	binder.notify()
}

// Text returns the document joined with newlines.
func (binder *Binder) Text() string {
	text, _ := binder.Document()
	return text
}

// Document returns the text and the line index as one consistent pair.
func (binder *Binder) Document() (string, model.LineIndex) {
	binder.mu.Lock()
	defer binder.mu.Unlock()
	texts := make([]string, len(binder.lines))
	index := make(model.LineIndex, len(binder.lines))
	for position, current := range binder.lines {
		texts[position] = current.text
		index[position] = current.id
	}
	return strings.Join(texts, "\n"), index
}

// Index returns the current line index.
func (binder *Binder) Index() model.LineIndex {
	_, index := binder.Document()
	return index
}

// Lines returns the render model of every line.
func (binder *Binder) Lines() []LineView {
	binder.mu.Lock()
	lines := append([]line(nil), binder.lines...)
	binder.mu.Unlock()

	views := make([]LineView, 0, len(lines))
	for position, current := range lines {
		view := LineView{Index: position, Text: current.text, ID: current.id}
		if token, ok := duration.Parse(current.text); ok {
			view.Token = current.text[token.Offset : token.Offset+token.ConsumedLength]
			view.Label = token.Label
		}
		if current.id != "" {
			if timer, ok := binder.keeper.View(current.id); ok {
				view.Timer = &timer
			}
		}
		views = append(views, view)
	}
	return views
}

// LineOf returns the position of the line bound to id.
func (binder *Binder) LineOf(id string) (int, bool) {
	binder.mu.Lock()
	defer binder.mu.Unlock()
	for position, current := range binder.lines {
		if current.id == id {
			return position, true
		}
	}
	return 0, false
}

// IDAt returns the record id bound to one line.
func (binder *Binder) IDAt(index int) (string, bool) {
	binder.mu.Lock()
	defer binder.mu.Unlock()
	if index < 0 || index >= len(binder.lines) || binder.lines[index].id == "" {
		return "", false
	}
	return binder.lines[index].id, true
}

func (binder *Binder) setLineLocked(index int, text string) bool {
	grown := false
	for len(binder.lines) <= index {
		binder.lines = append(binder.lines, line{})
		grown = true
	}
	current := &binder.lines[index]
	if current.text == text && !grown {
		return false
	}
	current.text = text
	binder.rebindLocked(current)
	return true
}

func (binder *Binder) insertLineLocked(index int, text string) {
	if index < 0 {
		index = 0
	}
	if index > len(binder.lines) {
		index = len(binder.lines)
	}
	binder.lines = append(binder.lines, line{})
	copy(binder.lines[index+1:], binder.lines[index:])
	binder.lines[index] = line{text: text}
	binder.rebindLocked(&binder.lines[index])
}

func (binder *Binder) deleteLineLocked(index int) bool {
	if index < 0 || index >= len(binder.lines) {
		return false
	}
	if id := binder.lines[index].id; id != "" {
		binder.keeper.Delete(id)
	}
	binder.lines = append(binder.lines[:index], binder.lines[index+1:]...)
	return true
}

// rebindLocked re-parses one line and brings its record in line: a gained
// token mints a record, a lost one deletes it, and a changed duration is fed
// to the keeper. Label-only edits leave the record alone.
func (binder *Binder) rebindLocked(current *line) {
	token, ok := duration.Parse(current.text)
	switch {
	case !ok && current.id != "":
		binder.keeper.Delete(current.id)
		current.id = ""
		current.ms = 0
	case !ok:
	case current.id == "":
		current.id = binder.newID()
		current.ms = token.Milliseconds
		binder.keeper.Create(current.id, token.Milliseconds)
	case token.Milliseconds != current.ms:
		current.ms = token.Milliseconds
		binder.keeper.ApplyDuration(current.id, token.Milliseconds)
	}
}

func (binder *Binder) notify() {
	binder.mu.Lock()
	hooks := append([]func(){}, binder.onChange...)
	binder.mu.Unlock()
	for _, hook := range hooks {
		hook()
	}
}
