package notifier

import (
	"container/heap"
	"time"
)

// entry es una dosis armada (pendiente de mostrarse).
type entry struct {
	dose  Dose
	at    time.Time
	index int
}

// doseQueue es un min-heap por horario de disparo; empates por id para que el orden sea estable.
type doseQueue []*entry

func (q doseQueue) Len() int { return len(q) }

func (q doseQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].dose.ID < q[j].dose.ID
	}
	return q[i].at.Before(q[j].at)
}

func (q doseQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *doseQueue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *doseQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

func (q doseQueue) peek() *entry {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}

func (q *doseQueue) push(e *entry) { heap.Push(q, e) }

func (q *doseQueue) pop() *entry { return heap.Pop(q).(*entry) }

func (q *doseQueue) remove(e *entry) {
	if e.index >= 0 && e.index < len(*q) {
		heap.Remove(q, e.index)
	}
}

func (q *doseQueue) fix(e *entry) { heap.Fix(q, e.index) }
