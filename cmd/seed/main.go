package main

import (
	"github.com/stitchline/stitchline-server/internal/config"
	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/logger"
	"github.com/stitchline/stitchline-server/internal/models"
	"github.com/stitchline/stitchline-server/internal/service"
)

func sizes(labels []string, stock int) []models.VariationSize {
	out := make([]models.VariationSize, 0, len(labels))
	for _, label := range labels {
		out = append(out, models.VariationSize{Label: label, Stock: stock})
	}
	return out
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("failed to migrate database: %v", err)
	}

	apparel := []string{"S", "M", "L", "XL"}
	shoes := []string{"40", "41", "42", "43", "44"}
	caps := []string{"S/M", "L/XL"}

	products := []models.Product{
		{
			Kind:        constants.ProductKindClothing,
			Name:        "Aso Oke Bomber Jacket",
			Slug:        "aso-oke-bomber-jacket",
			Description: "Handwoven aso oke panels on a relaxed bomber cut.",
			Price:       mustMoney("45000"),
			Images:      models.StringArray{"/uploads/products/aso-oke-bomber.jpg"},
			Attributes:  models.JSON{"material": "cotton blend", "fit": "relaxed"},
			Active:      true,
			SortOrder:   10,
			Variations: []models.ProductVariation{
				{VariationIndex: 1, Color: "indigo", Sizes: sizes(apparel, 8)},
				{VariationIndex: 2, Color: "sand", Sizes: sizes(apparel, 5)},
			},
		},
		{
			Kind:        constants.ProductKindClothing,
			Name:        "Lagos Linen Shirt",
			Slug:        "lagos-linen-shirt",
			Description: "Breathable linen shirt with camp collar.",
			Price:       mustMoney("18500"),
			Images:      models.StringArray{"/uploads/products/lagos-linen-shirt.jpg"},
			Attributes:  models.JSON{"material": "linen"},
			Active:      true,
			SortOrder:   20,
			Variations: []models.ProductVariation{
				{VariationIndex: 1, Color: "white", Sizes: sizes(apparel, 12)},
				{VariationIndex: 2, Color: "olive", Sizes: sizes(apparel, 12)},
				{VariationIndex: 3, Color: "black", Sizes: sizes(apparel, 6)},
			},
		},
		{
			Kind:        constants.ProductKindFootwear,
			Name:        "Eko Court Sneaker",
			Slug:        "eko-court-sneaker",
			Description: "Low-top leather sneaker stitched in Lagos.",
			Price:       mustMoney("62000"),
			Images:      models.StringArray{"/uploads/products/eko-court-sneaker.jpg"},
			Attributes:  models.JSON{"material": "full-grain leather"},
			Active:      true,
			SortOrder:   30,
			Variations: []models.ProductVariation{
				{VariationIndex: 1, Color: "white", Sizes: sizes(shoes, 4)},
				{VariationIndex: 2, Color: "tan", Sizes: sizes(shoes, 3)},
			},
		},
		{
			Kind:        constants.ProductKindHeadwear,
			Name:        "Adire Bucket Hat",
			Slug:        "adire-bucket-hat",
			Description: "Bucket hat in hand-dyed adire fabric.",
			Price:       mustMoney("9500"),
			Images:      models.StringArray{"/uploads/products/adire-bucket-hat.jpg"},
			Active:      true,
			SortOrder:   40,
			Variations: []models.ProductVariation{
				{VariationIndex: 1, Color: "indigo", Sizes: sizes(caps, 10)},
			},
		},
		{
			Kind:        constants.ProductKindAccessory,
			Name:        "Brass Cowrie Pendant",
			Slug:        "brass-cowrie-pendant",
			Description: "Cast brass cowrie on an adjustable cord.",
			Price:       mustMoney("7000"),
			Images:      models.StringArray{"/uploads/products/brass-cowrie-pendant.jpg"},
			Active:      true,
			SortOrder:   50,
			Variations: []models.ProductVariation{
				{VariationIndex: 1, Color: "brass", Stock: 25},
			},
		},
		{
			Kind:        constants.ProductKindAccessory,
			Name:        "Woven Raffia Tote",
			Slug:        "woven-raffia-tote",
			Description: "Market tote woven from natural raffia.",
			Price:       mustMoney("15000"),
			Images:      models.StringArray{"/uploads/products/woven-raffia-tote.jpg"},
			Active:      true,
			SortOrder:   60,
			Variations: []models.ProductVariation{
				{VariationIndex: 1, Color: "natural", Stock: 14},
				{VariationIndex: 2, Color: "black stripe", Stock: 9},
			},
		},
	}

	for i := range products {
		product := products[i]
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err == nil {
			stdLog.Printf("product already exists: %s", product.Slug)
			continue
		}
		total, err := service.ComputeTotalStock(&product)
		if err != nil {
			stdLog.Printf("failed to total product %s: %v", product.Slug, err)
			continue
		}
		product.TotalStock = total
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("failed to create product %s: %v", product.Slug, err)
			continue
		}
		stdLog.Printf("created product: %s", product.Slug)
	}

	stdLog.Println("seed finished")
}

func mustMoney(value string) models.Money {
	money, err := models.NewMoneyFromString(value)
	if err != nil {
		panic(err)
	}
	return money
}
