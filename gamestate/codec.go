package gamestate

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

func decodeRow[R Row](bz []byte) (R, error) {
	row := new(R)
	if err := json.Unmarshal(bz, row); err != nil {
		return *row, eris.Wrap(err, "")
	}
	return *row, nil
}

func encodeRow(row any) ([]byte, error) {
	bz, err := json.Marshal(row)
	if err != nil {
		return nil, eris.Wrap(err, "")
	}
	return bz, nil
}
