package docgen

import (
	"bytes"
	"html/template"

	"github.com/shopspring/decimal"

	"github.com/procura/backend/internal/domain/procurement"
)

// purchaseOrderTemplate is the built-in A4 layout for order documents
const purchaseOrderTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 12px; color: #1a1a1a; }
  h1 { font-size: 20px; margin-bottom: 2px; }
  .meta { color: #555; margin-bottom: 24px; }
  .meta div { margin: 2px 0; }
  table { width: 100%; border-collapse: collapse; margin-top: 12px; }
  th { text-align: left; border-bottom: 2px solid #1a1a1a; padding: 6px 4px; }
  td { border-bottom: 1px solid #ddd; padding: 6px 4px; }
  .num { text-align: right; }
  .total-row td { border-bottom: none; font-weight: bold; padding-top: 12px; }
</style>
</head>
<body>
  <h1>Purchase Order {{.PoNumber}}</h1>
  <div class="meta">
    <div>Vendor: {{.VendorName}}</div>
    {{if .IssuedAt}}<div>Issued: {{.IssuedAt.Format "2006-01-02"}}</div>{{end}}
    {{if .ExpectedDeliveryDate}}<div>Expected delivery: {{.ExpectedDeliveryDate.Format "2006-01-02"}}</div>{{end}}
  </div>
  <table>
    <thead>
      <tr><th>Description</th><th class="num">Qty</th><th class="num">Unit price</th><th class="num">Total</th></tr>
    </thead>
    <tbody>
      {{range .Lines}}
      <tr>
        <td>{{.Description}}</td>
        <td class="num">{{.Quantity}}</td>
        <td class="num">{{formatCents .UnitPriceCents}}</td>
        <td class="num">{{formatCents .TotalCents}}</td>
      </tr>
      {{end}}
      <tr class="total-row">
        <td colspan="3">Order total</td>
        <td class="num">{{formatCents .TotalCents}}</td>
      </tr>
    </tbody>
  </table>
</body>
</html>`

var poTemplate = template.Must(template.New("purchase_order").
	Funcs(template.FuncMap{"formatCents": formatCents}).
	Parse(purchaseOrderTemplate))

// formatCents renders a minor-unit amount with two decimal places
func formatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// buildPurchaseOrderHTML fills the order template
func buildPurchaseOrderHTML(po *procurement.PurchaseOrder) (string, error) {
	var buf bytes.Buffer
	if err := poTemplate.Execute(&buf, po); err != nil {
		return "", err
	}
	return buf.String(), nil
}
