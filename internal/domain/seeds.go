package domain

// DefaultSeedURLs are the best-seller roots crawled when no seeds are configured.
var DefaultSeedURLs = []string{
	"http://www.amazon.com/best-sellers-books-Amazon/zgbs/books/ref=zg_bs_unv_b_1_13913_4",
	"http://www.amazon.co.jp/gp/bestsellers/english-books/ref=zg_bs_unv_fb_1_101602011_3",
	"http://www.amazon.co.uk/gp/bestsellers/books/ref=pd_dp_ts_b_1",
	"http://www.amazon.it/gp/bestsellers/books/ref=zg_bs_unv_b_1_508758031_1",
	"http://www.amazon.fr/gp/bestsellers/english-books/ref=pd_dp_ts_eb_1",
	"http://www.amazon.de/gp/bestsellers/books-intl-de/ref=pd_dp_ts_eb_1",
	"http://www.amazon.es/gp/bestsellers/foreign-books/ref=pd_dp_ts_fb_1",
}
