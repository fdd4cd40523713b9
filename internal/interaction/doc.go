// Package interaction compiles a declarative service graph (services,
// endpoints, downstream calls) into actor programs the kernel can run:
// entering an endpoint issues a Host.Execute for its CPU cost, a sync
// downstream call blocks on a Mailbox rendezvous with the callee, and an
// async call spawns a child actor that makes that same blocking call while
// the caller moves on.
package interaction
