//Package cache keeps the last reading set across restarts so it can be shown
//as the "previous" value. Records use the station's 32-byte page format:
//
//	765;<temperature>;<lux>;<pressure>;
//
//padded with NUL bytes, where 765 marks the page as holding valid data.
package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
)

const (
	//ControlNumber prefixes every valid page
	ControlNumber = 765
	//PageSize is the fixed size of a stored page
	PageSize = 32
)

//ErrEmpty is returned when no valid page has been stored
var ErrEmpty = errors.New("cache: empty")

//Record the readings kept between runs
type Record struct {
	//Temperature in tenths of a degree Celsius
	Temperature int32 `json:"temperature"`
	//Lux is zero on stations without a light sensor
	Lux uint32 `json:"lux"`
	//Pressure in Pa
	Pressure int32 `json:"pressure"`
}

//Encode renders r as a page
func Encode(r Record) ([]byte, error) {
	s := fmt.Sprintf("%d;%d;%d;%d;", ControlNumber, r.Temperature, r.Lux, r.Pressure)
	if len(s) > PageSize {
		return nil, fmt.Errorf("cache: record %q does not fit a %d byte page", s, PageSize)
	}

	page := make([]byte, PageSize)
	copy(page, s)
	return page, nil
}

//Decode parses a page, returning ErrEmpty if it does not carry the
//control number
func Decode(page []byte) (Record, error) {
	if i := bytes.IndexByte(page, 0); i >= 0 {
		page = page[:i]
	}
	if !bytes.HasPrefix(page, []byte(fmt.Sprintf("%d;", ControlNumber))) {
		return Record{}, ErrEmpty
	}

	var (
		control int
		r       Record
	)
	if _, err := fmt.Sscanf(string(page), "%d;%d;%d;%d;", &control, &r.Temperature, &r.Lux, &r.Pressure); err != nil {
		return Record{}, fmt.Errorf("cache: malformed page %q: %w", page, err)
	}
	return r, nil
}

//Store persists one Record
type Store interface {
	Load() (Record, error)
	Save(Record) error
}

//File stores the page in a regular file
type File struct {
	Path string
}

//Load reads the stored record. A missing file is ErrEmpty.
func (f File) Load() (Record, error) {
	page, err := ioutil.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return Record{}, ErrEmpty
	} else if err != nil {
		return Record{}, fmt.Errorf("cache: failed reading %s: %w", f.Path, err)
	}
	return Decode(page)
}

//Save overwrites the stored record
func (f File) Save(r Record) error {
	page, err := Encode(r)
	if err != nil {
		return err
	}

	tmp := f.Path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return fmt.Errorf("cache: failed creating directory for %s: %w", f.Path, err)
	}
	if err := ioutil.WriteFile(tmp, page, 0644); err != nil {
		return fmt.Errorf("cache: failed writing %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.Path)
}
