package service

import "sync/atomic"

// busyFlag counts in-flight operations for UI indicators
type busyFlag struct {
	n atomic.Int32
}

func (b *busyFlag) enter()       { b.n.Add(1) }
func (b *busyFlag) leave()       { b.n.Add(-1) }
func (b *busyFlag) active() bool { return b.n.Load() > 0 }
