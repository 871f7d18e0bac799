package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/prodsearch/internal/domain/product"
)

// DefaultScanBatch is the row batch size used by ReadParquet.
const DefaultScanBatch = 1024

// Row is one product record in a catalog parquet snapshot.
type Row struct {
	ASIN       string   `parquet:"asin"`
	Title      string   `parquet:"title,optional"`
	Category   string   `parquet:"categoryName,optional"`
	ImageURL   string   `parquet:"imgUrl,optional"`
	ProductURL string   `parquet:"productURL,optional"`
	Price      *float64 `parquet:"price,optional"`
	Stars      *float64 `parquet:"stars,optional"`
	Reviews    *int64   `parquet:"reviews,optional"`
	Stock      *int64   `parquet:"stock_quantity,optional"`
	Cluster    *int64   `parquet:"cluster,optional"`
}

// Product validates the row and converts it to a domain product.
func (r *Row) Product() (product.Product, error) {
	a := product.Attrs{
		Title:      r.Title,
		Category:   r.Category,
		ImageURL:   r.ImageURL,
		ProductURL: r.ProductURL,
		Price:      r.Price,
		Rating:     r.Stars,
		Reviews:    r.Reviews,
		Stock:      r.Stock,
	}
	if r.Cluster != nil {
		c := int(*r.Cluster)
		a.Cluster = &c
	}
	return product.New(r.ASIN, a)
}

// RowFromProduct is the inverse of Row.Product.
func RowFromProduct(p *product.Product) Row {
	a := p.Attrs()
	r := Row{
		ASIN:       p.ID(),
		Title:      a.Title,
		Category:   a.Category,
		ImageURL:   a.ImageURL,
		ProductURL: a.ProductURL,
		Price:      a.Price,
		Stars:      a.Rating,
		Reviews:    a.Reviews,
		Stock:      a.Stock,
	}
	if a.Cluster != nil {
		c := int64(*a.Cluster)
		r.Cluster = &c
	}
	return r
}

// ScanReport summarizes a parquet scan.
type ScanReport struct {
	Rows     int
	Accepted int
	Rejected int
}

// ScanParquet streams a parquet snapshot in batches of valid products.
// Rows that fail validation are counted and skipped; fn errors stop the scan.
func ScanParquet(
	ctx context.Context, path string, batch int, fn func([]product.Product) error,
) (ScanReport, error) {
	var rep ScanReport
	if batch <= 0 {
		batch = DefaultScanBatch
	}

	f, err := os.Open(path)
	if err != nil {
		return rep, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[Row](f)
	defer reader.Close()

	buf := make([]Row, batch)
	for {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		n, readErr := reader.Read(buf)
		if n > 0 {
			products := make([]product.Product, 0, n)
			for i := range buf[:n] {
				rep.Rows++
				p, err := buf[i].Product()
				if err != nil {
					rep.Rejected++
					continue
				}
				products = append(products, p)
			}
			rep.Accepted += len(products)
			if len(products) > 0 {
				if err := fn(products); err != nil {
					return rep, err
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			return rep, nil
		}
		if readErr != nil {
			return rep, fmt.Errorf("read rows: %w", readErr)
		}
	}
}

// ReadParquet loads every valid product of a snapshot.
func ReadParquet(ctx context.Context, path string) ([]product.Product, ScanReport, error) {
	var out []product.Product
	rep, err := ScanParquet(ctx, path, DefaultScanBatch, func(batch []product.Product) error {
		out = append(out, batch...)
		return nil
	})
	if err != nil {
		return nil, rep, err
	}
	return out, rep, nil
}

// WriteParquet writes products as a parquet snapshot.
func WriteParquet(path string, products []product.Product) error {
	rows := make([]Row, len(products))
	for i := range products {
		rows[i] = RowFromProduct(&products[i])
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
