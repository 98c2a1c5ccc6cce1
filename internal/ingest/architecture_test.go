package ingest

import (
	"testing"

	"countryview/testutil"
)

func TestIngestUsesBlobFacade(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InfraImportForbidden, "drivers are chosen by blob.Open")
}
