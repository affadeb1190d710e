package crawler

// AvvaListResponse is the body of GET /api/product/GetProductList.
type AvvaListResponse struct {
	Products []AvvaProduct `json:"products"`
}

type AvvaProduct struct {
	ProductID            int64              `json:"productId"`
	StockCode            string             `json:"stockCode"`
	Barcode              string             `json:"barcode"`
	Name                 string             `json:"name"`
	Brand                string             `json:"brand"`
	URL                  string             `json:"url"`
	ImageThumbPath       string             `json:"imageThumbPath"`
	ProductCartPrice     float64            `json:"productCartPrice"`
	ProductPriceOriginal float64            `json:"productPriceOriginal"`
	DiscountRate         float64            `json:"discountRate"`
	InStock              bool               `json:"inStock"`
	TotalStockAmount     float64            `json:"totalStockAmount"`
	VariantCount         int                `json:"variantCount"`
	VariantTypeValues    []AvvaVariantGroup `json:"variantTypeValues"`
}

type AvvaVariantGroup struct {
	Name             string           `json:"name"`
	SubVariantValues []AvvaSubVariant `json:"subVariantValues"`
}

type AvvaSubVariant struct {
	Name        string  `json:"name"`
	StockAmount float64 `json:"stockAmount"`
}

// avvaFilter is serialized into the FilterJson query parameter. -1 means
// "no filter" for the tri-state flags.
type avvaFilter struct {
	CategoryIDList       []int64 `json:"CategoryIdList"`
	BrandIDList          []int64 `json:"BrandIdList"`
	SupplierIDList       []int64 `json:"SupplierIdList"`
	TagIDList            []int64 `json:"TagIdList"`
	TagID                int     `json:"TagId"`
	FilterObject         []any   `json:"FilterObject"`
	MinStockAmount       int     `json:"MinStockAmount"`
	IsShowcaseProduct    int     `json:"IsShowcaseProduct"`
	IsOpportunityProduct int     `json:"IsOpportunityProduct"`
	FastShipping         int     `json:"FastShipping"`
	IsNewProduct         int     `json:"IsNewProduct"`
	IsDiscountedProduct  int     `json:"IsDiscountedProduct"`
	IsShippingFree       int     `json:"IsShippingFree"`
	IsProductCombine     int     `json:"IsProductCombine"`
	MinPrice             float64 `json:"MinPrice"`
	MaxPrice             float64 `json:"MaxPrice"`
	SearchKeyword        string  `json:"SearchKeyword"`
	StrProductIDs        string  `json:"StrProductIds"`
	IsSimilarProduct     bool    `json:"IsSimilarProduct"`
	RelatedProductID     int64   `json:"RelatedProductId"`
	PageContentID        int64   `json:"PageContentId"`
	IsVariantList        int     `json:"IsVariantList"`
	ShowList             int     `json:"ShowList"`
	IsInStock            bool    `json:"IsInStock"`
	IsPriceRequest       bool    `json:"IsPriceRequest"`
	IsProductListPage    bool    `json:"IsProductListPage"`
	NonStockShowEnd      int     `json:"NonStockShowEnd"`
}

type avvaPaging struct {
	PageItemCount  int    `json:"PageItemCount"`
	PageNumber     int    `json:"PageNumber"`
	OrderBy        string `json:"OrderBy"`
	OrderDirection string `json:"OrderDirection"`
}

func newAvvaFilter(categoryID int64) avvaFilter {
	return avvaFilter{
		CategoryIDList:       []int64{categoryID},
		BrandIDList:          []int64{},
		SupplierIDList:       []int64{},
		TagIDList:            []int64{},
		TagID:                -1,
		FilterObject:         []any{},
		MinStockAmount:       -1,
		IsShowcaseProduct:    -1,
		IsOpportunityProduct: -1,
		FastShipping:         -1,
		IsNewProduct:         -1,
		IsDiscountedProduct:  -1,
		IsShippingFree:       -1,
		IsProductCombine:     -1,
		IsVariantList:        -1,
		ShowList:             1,
		IsPriceRequest:       true,
		IsProductListPage:    true,
	}
}
