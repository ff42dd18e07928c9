package nandps

import "fmt"

// BadBlockTable decides which device blocks are skipped. Block indices are
// device global: target*NumTargetBlocks + block.
type BadBlockTable interface {
	// InitDesc sizes the table for the discovered geometry.
	InitDesc(g Geometry)
	// Scan builds the table. It runs once in New, after the ECC mode is
	// fixed.
	Scan(c *Controller) error
	IsBlockBad(block uint32) bool
}

// badMarkerGood is the factory marker of a good block.
const badMarkerGood = 0xFF

// MarkerTable finds factory bad blocks from the marker in the first spare
// byte of the first page of every block.
type MarkerTable struct {
	g   Geometry
	bad map[uint32]bool
}

func (t *MarkerTable) InitDesc(g Geometry) {
	t.g = g
	t.bad = make(map[uint32]bool)
}

func (t *MarkerTable) Scan(c *Controller) error {
	spare := make([]byte, t.g.SpareBytesPerPage)
	for block := range t.g.NumBlocks {
		page := block * t.g.PagesPerBlock
		err := c.readSpare(int(page/t.g.NumTargetPages), page%t.g.NumTargetPages, spare)
		if err != nil {
			return fmt.Errorf("block %d: %w", block, err)
		}
		if spare[0] != badMarkerGood {
			t.bad[block] = true
			c.log.Info("bad block", "block", block, "marker", fmt.Sprintf("0x%02X", spare[0]))
		}
	}
	return nil
}

func (t *MarkerTable) IsBlockBad(block uint32) bool { return t.bad[block] }

// Bad returns the bad blocks found by the last scan.
func (t *MarkerTable) Bad() []uint32 {
	var blocks []uint32
	for block := range t.g.NumBlocks {
		if t.bad[block] {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// BlockSet is a fixed table of bad blocks, for devices whose bad blocks are
// tracked elsewhere. The zero value has no bad blocks.
type BlockSet map[uint32]bool

func (BlockSet) InitDesc(Geometry)          {}
func (BlockSet) Scan(*Controller) error     { return nil }
func (s BlockSet) IsBlockBad(b uint32) bool { return s[b] }
