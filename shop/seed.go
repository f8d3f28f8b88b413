//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package shop

// DemoProducts is a small catalog used by the default configuration and tests.
func DemoProducts() []Product {
	return []Product{
		{ID: "IP15-128", Name: "iPhone 15 128GB", Brand: "Apple", Category: "điện thoại", Price: 19990000, Stock: 12,
			Specs: map[string]string{"chip": "A16 Bionic", "camera": "48MP"}},
		{ID: "IP15PM-256", Name: "iPhone 15 Pro Max 256GB", Brand: "Apple", Category: "điện thoại", Price: 29990000, Stock: 4,
			Specs: map[string]string{"chip": "A17 Pro", "camera": "48MP"}},
		{ID: "SSA55-128", Name: "Samsung Galaxy A55 5G 128GB", Brand: "Samsung", Category: "điện thoại", Price: 9490000, Stock: 20,
			Specs: map[string]string{"camera": "50MP", "pin": "5000mAh"}},
		{ID: "XRN13-256", Name: "Xiaomi Redmi Note 13 256GB", Brand: "Xiaomi", Category: "điện thoại", Price: 5290000, Stock: 30,
			Specs: map[string]string{"camera": "108MP", "pin": "5000mAh"}},
		{ID: "ASTUF-F15", Name: "Laptop ASUS TUF Gaming F15", Brand: "ASUS", Category: "laptop gaming", Price: 18490000, Stock: 6,
			Specs: map[string]string{"cpu": "Core i5 12500H", "gpu": "RTX 3050"}},
		{ID: "MBA-M2", Name: "MacBook Air M2 13 inch", Brand: "Apple", Category: "laptop", Price: 22990000, Stock: 8,
			Specs: map[string]string{"chip": "Apple M2", "ram": "8GB"}},
		{ID: "APP2-USBC", Name: "AirPods Pro 2 USB-C", Brand: "Apple", Category: "tai nghe", Price: 5990000, Stock: 15},
		{ID: "SAC-20W", Name: "Củ sạc nhanh Apple 20W USB-C", Brand: "Apple", Category: "phụ kiện sạc", Price: 490000, Stock: 50},
	}
}
