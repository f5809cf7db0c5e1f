package models

// All 需要自动迁移的模型, 顺序即建表顺序
func All() []interface{} {
	return []interface{}{
		&User{},
		&Memorial{},
		&Memory{},
	}
}
