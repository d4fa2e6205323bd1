package email

const welcomeContentTemplate = `
<h2 style="color: #7a2e2e; margin-top: 0;">Thank you for subscribing</h2>
<p>You are now on the list for new arrivals from our Afghan artisans: jewelry, Kochi dresses and handwoven bags.</p>
<p>We send a short note when a new collection arrives and never share your address.</p>
{{if .ShopURL}}<p style="text-align: center; margin: 30px 0;">
    <a href="{{.ShopURL}}" style="background-color: #7a2e2e; color: #ffffff; padding: 12px 24px; border-radius: 4px; text-decoration: none;">Visit the boutique</a>
</p>{{end}}
<p style="font-size: 12px; color: #888;">This message was sent to {{.Email}}.</p>
`

const adminOrderContentTemplate = `
<h2 style="margin-top: 0;">New order {{.ID}}</h2>
{{if .Demo}}<p style="color: #a03c28;"><strong>Demo order:</strong> no payment was collected.</p>{{end}}
{{if .PaymentIntentID}}<p>Payment intent: {{.PaymentIntentID}}</p>{{end}}
<p>Placed {{.PlacedAt.Format "January 2, 2006 at 3:04 PM MST"}}</p>
<table style="width: 100%; border-collapse: collapse;">
    <tr>
        <th style="text-align: left; border-bottom: 1px solid #ddd; padding: 8px;">Item</th>
        <th style="text-align: right; border-bottom: 1px solid #ddd; padding: 8px;">Qty</th>
        <th style="text-align: right; border-bottom: 1px solid #ddd; padding: 8px;">Price</th>
    </tr>
    {{range .Items}}
    <tr>
        <td style="padding: 8px;">{{.Name}}</td>
        <td style="text-align: right; padding: 8px;">{{.Qty}}</td>
        <td style="text-align: right; padding: 8px;">{{FormatCents .Price}}</td>
    </tr>
    {{end}}
</table>
<p style="text-align: right; font-size: 16px;"><strong>Subtotal: {{FormatCents .Subtotal}}</strong></p>
`
