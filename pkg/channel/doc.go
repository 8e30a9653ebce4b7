// Package channel provides the blocking primitives used to wire record processing stages together.
//
// A Channel is a typed conduit between writers and readers. An unbuffered channel is a rendezvous: a
// write returns once a reader has taken the item. A buffered channel stores up to N items in a bounded
// FIFO Buffer and only blocks writers when the buffer is full.
//
// Readers and writers register with ReadConnect and WriteConnect. The channel closes once its last
// connected writer disconnects; readers still drain the items left in the buffer before they see the
// channel as closed. Close force-closes a channel and discards whatever is still buffered.
//
// A Selector waits on several channels at once. Each call takes a guard slice, parallel to the
// channels, that enables or disables every channel for that call only. Among several ready channels
// the Selector picks in round-robin order so no channel is starved.
package channel
