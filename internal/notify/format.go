package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"avvatracker/internal/model"
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// percentOf is |a-b|/base*100 with the given decimals.
func percentOf(a, b, base float64, places int32) string {
	if base <= 0 {
		return decimal.Zero.StringFixed(places)
	}
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.Div(decimal.NewFromFloat(base)).Mul(decimal.NewFromInt(100)).StringFixed(places)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Format renders ev as a Telegram HTML message. siteURL prefixes the
// relative product URLs. ok is false for kinds with nothing to say, such as
// a digest without drops.
func Format(ev model.Event, siteURL string) (msg string, ok bool) {
	link := fmt.Sprintf(`🔗 <a href="%s">Ürüne Git</a>`, escapeHTML(strings.TrimRight(siteURL, "/")+ev.URL))
	name := escapeHTML(ev.Name)

	switch ev.Kind {
	case model.EventNewProduct:
		return fmt.Sprintf("🆕 <b>YENİ ÜRÜN</b>\n\n📦 %s\n💰 %s TL\n📊 Stok: %d adet\n\n%s",
			name, money(ev.NewPrice), ev.TotalStock, link), true

	case model.EventPriceDrop:
		return fmt.Sprintf("🔻 <b>FİYAT DÜŞTÜ!</b>\n\n📦 %s\n💰 <s>%s TL</s> → <b>%s TL</b>\n📉 %s TL (%%%s) indirim\n\n%s",
			name, money(ev.OldPrice), money(ev.NewPrice),
			money(ev.OldPrice-ev.NewPrice), percentOf(ev.OldPrice, ev.NewPrice, ev.OldPrice, 1), link), true

	case model.EventPriceIncrease:
		return fmt.Sprintf("🔺 <b>FİYAT ARTTI</b>\n\n📦 %s\n💰 %s TL → <b>%s TL</b>\n📈 +%s TL (%%%s) artış\n\n%s",
			name, money(ev.OldPrice), money(ev.NewPrice),
			money(ev.NewPrice-ev.OldPrice), percentOf(ev.NewPrice, ev.OldPrice, ev.OldPrice, 1), link), true

	case model.EventBackInStock:
		return fmt.Sprintf("✅ <b>STOK GELDİ!</b>\n\n📦 %s\n💰 %s TL\n📊 Stok: %d adet\n\n%s",
			name, money(ev.NewPrice), ev.TotalStock, link), true

	case model.EventOutOfStock:
		return fmt.Sprintf("❌ <b>STOK TÜKENDİ</b>\n\n📦 %s\n💰 %s TL\n\n%s",
			name, money(ev.NewPrice), link), true

	case model.EventLowStock:
		return fmt.Sprintf("⚠️ <b>DÜŞÜK STOK</b>\n\n📦 %s\n💰 %s TL\n📊 Kalan stok: <b>%d</b> adet\n\n%s",
			name, money(ev.NewPrice), ev.TotalStock, link), true

	case model.EventScrapeSummary:
		if ev.Report == nil {
			return "", false
		}
		r := ev.Report
		return fmt.Sprintf("📊 <b>TARAMA TAMAMLANDI</b>\n\n🕐 %s\n📁 Kategori: %d\n📦 Toplam ürün: %d\n🆕 Yeni ürün: %d\n🔄 Güncellenen: %d\n\n💰 Fiyat değişimi: %d\n   🔻 Düşen: %d\n   🔺 Artan: %d\n\n❌ Hata: %d",
			r.StartedAt.Format("02.01.2006 15:04:05"), r.CategoriesProcessed, r.ProductsFound,
			r.ProductsNew, r.ProductsUpdated, len(r.PriceChanges), r.Drops(), r.Increases(), len(r.Errors)), true

	case model.EventTopPriceDrops:
		if len(ev.Drops) == 0 {
			return "", false
		}
		var b strings.Builder
		b.WriteString("🏆 <b>EN ÇOK DÜŞEN FİYATLAR</b>\n\n")
		for _, d := range ev.Drops {
			fmt.Fprintf(&b, "• %s\n  <s>%s</s> → <b>%s TL</b> (-%%%s)\n\n",
				escapeHTML(truncate(d.Name, 35)), money(d.OldPrice), money(d.NewPrice),
				percentOf(d.OldPrice, d.NewPrice, d.OldPrice, 0))
		}
		return strings.TrimRight(b.String(), "\n"), true
	}
	return "", false
}
