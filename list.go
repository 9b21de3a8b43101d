package rescache

type node interface {
	prev() node
	next() node
	setPrev(node)
	setNext(node)
}

// list is an intrusive doubly linked list over nodes. The store uses it to
// maintain recency order: the first node is the least recently used one.
type list struct {
	first, last node
}

func (l *list) empty() bool { return l.first == nil }

func (l *list) append(n node) {
	n.setPrev(l.last)
	n.setNext(nil)

	if l.first == nil {
		l.first = n
	} else {
		l.last.setNext(n)
	}

	l.last = n
}

func (l *list) remove(n node) {
	prev, next := n.prev(), n.next()

	if prev == nil {
		l.first = next
	} else {
		prev.setNext(next)
	}

	if next == nil {
		l.last = prev
	} else {
		next.setPrev(prev)
	}

	n.setPrev(nil)
	n.setNext(nil)
}

// moves a node to the last, most recently used position
func (l *list) toBack(n node) {
	if l.last == n {
		return
	}

	l.remove(n)
	l.append(n)
}
