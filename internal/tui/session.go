package tui

// history keeps the commands entered in this session for up/down recall.
type history struct {
	entries       []string
	index         int
	currentBuffer string
	navigating    bool
}

func newHistory() *history {
	return &history{index: -1}
}

func (h *history) add(cmd string) {
	if cmd != "" {
		h.entries = append(h.entries, cmd)
		h.index = len(h.entries)
		h.navigating = false
	}
}

// start remembers the unfinished line so navigating back down restores it.
func (h *history) start(currentBuffer string) {
	if !h.navigating {
		h.currentBuffer = currentBuffer
		h.navigating = true
		h.index = len(h.entries)
	}
}

func (h *history) active() bool {
	return h.navigating
}

func (h *history) navigate(up bool) string {
	if len(h.entries) == 0 {
		return h.currentBuffer
	}

	if up {
		if h.index > 0 {
			h.index--
		}
		return h.entries[h.index]
	}

	if h.index < len(h.entries)-1 {
		h.index++
		return h.entries[h.index]
	}
	h.index = len(h.entries)
	h.navigating = false
	return h.currentBuffer
}
