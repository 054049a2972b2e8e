package models

// Counter is a named store-side sequence. The invoice-number allocator bumps
// it with a single guarded UPDATE so numbers stay unique under concurrency.
type Counter struct {
	Name  string `json:"name" gorm:"primaryKey;size:64"`
	Value int64  `json:"value" gorm:"not null;default:0"`
}

// InvoiceNumberCounter is the counter row backing invoice numbering.
const InvoiceNumberCounter = "invoice_number"
