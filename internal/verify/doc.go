// Package verify matches each document's OCR barcode against its filename
// stem before the document may be uploaded.
package verify
