/*
NAME
  discontinuity.go

DESCRIPTION
  discontinuity.go provides detection of continuity counter breaks in
  MPEG-TS, which indicate lost or reordered packets.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mts

import (
	"github.com/Comcast/gots/packet"
)

// noCC marks a PID whose continuity counter has not been seen.
const noCC = 16

// ContinuityChecker tracks the expected continuity counter of each PID.
type ContinuityChecker struct {
	expCC map[int]int
}

// NewContinuityChecker returns a pointer to a new ContinuityChecker.
func NewContinuityChecker() *ContinuityChecker {
	return &ContinuityChecker{expCC: make(map[int]int)}
}

// Check reports whether the continuity counter of pkt is the one expected for
// its PID. Packets without payload do not advance the counter. The first
// packet of a PID, and a packet flagged with the discontinuity indicator,
// are always accepted.
func (c *ContinuityChecker) Check(pkt *packet.Packet) bool {
	if pkt[3]&0x10 == 0 {
		return true
	}
	pid := pkt.PID()
	cc := pkt.ContinuityCounter()
	expect, ok := c.ExpectedCC(pid)
	c.SetExpectedCC(pid, cc)
	c.IncExpectedCC(pid)
	return !ok || cc == expect || discontinuityIndicated(pkt)
}

// ExpectedCC returns the expected cc. If the cc hasn't been used yet, then 16
// and false is returned.
func (c *ContinuityChecker) ExpectedCC(pid int) (int, bool) {
	cc, ok := c.expCC[pid]
	if !ok {
		return noCC, false
	}
	return cc, true
}

// IncExpectedCC increments the expected cc.
func (c *ContinuityChecker) IncExpectedCC(pid int) {
	c.expCC[pid] = (c.expCC[pid] + 1) & 0xf
}

// SetExpectedCC sets the expected cc.
func (c *ContinuityChecker) SetExpectedCC(pid, cc int) {
	c.expCC[pid] = cc
}

// discontinuityIndicated reports whether pkt carries an adaptation field with
// the discontinuity indicator set.
func discontinuityIndicated(pkt *packet.Packet) bool {
	return pkt[3]&0x20 != 0 && pkt[4] > 0 && pkt[5]&0x80 != 0
}
