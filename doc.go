// SPDX-License-Identifier: GPL-3.0-or-later

// Package dnswire parses wire-format DNS messages into opaque handles.
//
// [Parse] and [ParseTCP] produce a [*Msg] handle over a raw message
// buffer. The handle precomputes the header fields and the section
// boundaries, so the accessors ([*Msg.ID], [*Msg.Base], [*Msg.End],
// [*Msg.Size], [*Msg.Count]) are infallible pass-throughs that never
// allocate.
//
// This package does not implement its own DNS serializer. We use and
// expose [github.com/miekg/dns] types: [NewQuery] and [*Query] build
// and pack query messages, and [ParseReply] and [*Reply] validate raw
// responses against the query that produced them.
package dnswire
