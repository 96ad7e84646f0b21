package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"riskpipe/internal/schema"
)

const validBatch = `step,type,amount,nameOrig,oldbalanceOrg,newbalanceOrig,nameDest,oldbalanceDest,newbalanceDest,isFraud,isFlaggedFraud
1,PAYMENT,9839.64,C1231006815,170136.0,160296.36,M1979787155,0.0,0.0,0,0
1,TRANSFER,181.0,C1305486145,181.0,0.0,C553264065,0.0,0.0,1,0
2,CASH_OUT,181.0,C840083671,181.0,0.0,,21182.0,0.0,1,0
`

func TestReadValidBatch(t *testing.T) {
	txns, err := NewReader(zerolog.Nop()).Read(strings.NewReader(validBatch))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("rows = %d, want 3", len(txns))
	}

	if txns[1].Type != "TRANSFER" || txns[1].IsFraud != 1 {
		t.Fatalf("row 1 parsed wrong: %+v", txns[1])
	}
	if txns[2].NameDest != "" {
		t.Fatalf("null destination should stay empty, got %q", txns[2].NameDest)
	}
	for i, tx := range txns {
		if tx.Index != i {
			t.Fatalf("row %d carries index %d", i, tx.Index)
		}
	}
}

func TestReadMissingColumns(t *testing.T) {
	_, err := NewReader(zerolog.Nop()).Read(strings.NewReader("step,type,amount\n1,PAYMENT,10\n"))
	var schemaErr *schema.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *schema.SchemaError, got %v", err)
	}
	if len(schemaErr.Missing) != 4 {
		t.Fatalf("missing = %v", schemaErr.Missing)
	}
}

func TestReadNegativeAmount(t *testing.T) {
	batch := "step,type,amount,nameOrig,nameDest,isFraud,isFlaggedFraud\n1,PAYMENT,-5,C1,M1,0,0\n"
	_, err := NewReader(zerolog.Nop()).Read(strings.NewReader(batch))

	var integrity *DataIntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected *DataIntegrityError, got %v", err)
	}
	if integrity.Column != schema.ColAmount || integrity.Row != 1 {
		t.Fatalf("unexpected error detail: %+v", integrity)
	}
}

func TestReadInvalidLabel(t *testing.T) {
	batch := "step,type,amount,nameOrig,nameDest,isFraud,isFlaggedFraud\n1,PAYMENT,5,C1,M1,2,0\n"
	_, err := NewReader(zerolog.Nop()).Read(strings.NewReader(batch))

	var integrity *DataIntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected *DataIntegrityError, got %v", err)
	}
	if integrity.Column != schema.ColIsFraud {
		t.Fatalf("unexpected error detail: %+v", integrity)
	}
}
