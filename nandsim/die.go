package nandsim

import (
	"github.com/gentam/nandps/onfi"
)

// die is one ONFI target: the array, the page register and the feature
// parameters.
type die struct {
	param    *onfi.ParamPage
	pageLen  uint32 // main + spare
	array    []byte
	reg      []byte // page register, or the parameter page stream
	openRow  uint32
	open     bool
	features map[uint8][4]byte

	onfi     bool
	busy     int
	fail     bool
	failNext bool
	paramRaw []byte
}

func newDie(o *Options, target int) *die {
	p := o.Param
	d := &die{
		param:    p,
		pageLen:  p.BytesPerPage + uint32(p.SpareBytesPerPage),
		features: make(map[uint8][4]byte),
		onfi:     !o.NotONFI[target],
	}
	pages := d.pages()
	d.array = make([]byte, pages*d.pageLen)
	for i := range d.array {
		d.array[i] = 0xFF
	}
	d.paramRaw = paramStream(o, o.CorruptCopies[target])
	return d
}

func (d *die) pages() uint32 {
	return d.param.BlocksPerLUN * uint32(d.param.NumLUNs) * d.param.PagesPerBlock
}

func (d *die) page(row uint32) []byte {
	row %= d.pages()
	return d.array[row*d.pageLen : (row+1)*d.pageLen]
}

// paramStream is what Read Parameter Page returns: the parameter page
// copies followed by the extended parameter page copies.
func paramStream(o *Options, corrupt int) []byte {
	pb, err := o.Param.MarshalBinary()
	if err != nil {
		panic(err)
	}
	var s []byte
	for i := range int(o.Param.NumParamPages) {
		cp := append([]byte(nil), pb...)
		if i < corrupt {
			cp[onfi.ParamPageLen-1] ^= 0xFF
		}
		s = append(s, cp...)
	}
	if o.Ext != nil {
		eb, err := o.Ext.MarshalBinary()
		if err != nil {
			panic(err)
		}
		if o.CorruptExt {
			eb[0] ^= 0xFF
		}
		for range int(o.Param.NumParamPages) {
			s = append(s, eb...)
		}
	}
	return s
}

func (d *die) reset() {
	d.features[onfi.FeatureTimingMode] = [4]byte{}
	d.open = false
	d.busy = 0
	d.fail = false
}

func (d *die) status() onfi.Status {
	const (
		wp   = 1 << 7
		rdy  = 1 << 6
		ardy = 1 << 5
		fail = 1 << 0
	)
	if d.busy > 0 {
		d.busy--
		return wp
	}
	s := onfi.Status(wp | rdy | ardy)
	if d.fail {
		s |= fail
	}
	return s
}

// program ANDs the page register into row.
func (d *die) program(row uint32) {
	p := d.page(row)
	for i := range p {
		p[i] &= d.reg[i]
	}
}

func (d *die) erase(row uint32) {
	ppb := d.param.PagesPerBlock
	first := row / ppb * ppb
	for r := first; r < first+ppb; r++ {
		p := d.page(r)
		for i := range p {
			p[i] = 0xFF
		}
	}
}
