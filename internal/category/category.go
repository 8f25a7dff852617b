// Package category holds the wallpaper taxonomy mirrored from the image
// repository's directory layout.
package category

// Subcategory is one second-level category under a series.
type Subcategory struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Series describes one top-level directory (desktop, mobile, avatar).
type Series struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Fallback is the catch-all third-level category.
const Fallback = "通用"

var series = map[string]Series{
	"desktop": {
		Name:        "Desktop（桌面壁纸）",
		Description: "横向构图，适合电脑屏幕，宽高比接近 16:9 或 16:10",
		Subcategories: []Subcategory{
			{Value: "插画", Label: "插画", Description: "艺术插画、手绘风格"},
			{Value: "动漫", Label: "动漫", Description: "动漫角色、二次元风格"},
			{Value: "风景", Label: "风景", Description: "自然风光、城市景观"},
			{Value: "萌宠", Label: "萌宠", Description: "可爱动物、宠物"},
			{Value: "人像", Label: "人像", Description: "真人照片、人物摄影"},
			{Value: "影视", Label: "影视", Description: "电影、电视剧相关"},
			{Value: "游戏", Label: "游戏", Description: "游戏截图、游戏角色"},
			{Value: "政治", Label: "政治", Description: "政治人物、国家元首"},
			{Value: "IP形象", Label: "IP形象", Description: "品牌IP、卡通形象"},
		},
	},
	"mobile": {
		Name:        "Mobile（手机壁纸）",
		Description: "竖向构图，适合手机屏幕，宽高比接近 9:16",
		Subcategories: []Subcategory{
			{Value: "插画", Label: "插画", Description: "艺术插画、手绘风格"},
			{Value: "创意", Label: "创意", Description: "创意设计、抽象艺术"},
			{Value: "动漫", Label: "动漫", Description: "动漫角色、二次元风格"},
			{Value: "风景", Label: "风景", Description: "自然风光、城市景观"},
			{Value: "萌宠", Label: "萌宠", Description: "可爱动物、宠物"},
			{Value: "人像", Label: "人像", Description: "真人照片、人物摄影"},
			{Value: "影视", Label: "影视", Description: "电影、电视剧相关"},
			{Value: "IP形象", Label: "IP形象", Description: "品牌IP、卡通形象"},
		},
	},
	"avatar": {
		Name:        "Avatar（头像）",
		Description: "正方形或接近正方形，适合作为头像使用",
		Subcategories: []Subcategory{
			{Value: "表情包", Label: "表情包", Description: "搞笑表情、meme图"},
			{Value: "插画", Label: "插画", Description: "艺术插画风格头像"},
			{Value: "动漫", Label: "动漫", Description: "动漫角色头像"},
			{Value: "萌宠", Label: "萌宠", Description: "动物头像"},
			{Value: "人像", Label: "人像", Description: "真人头像"},
			{Value: "IP形象", Label: "IP形象", Description: "品牌IP、卡通形象头像"},
		},
	},
}

var thirdLevel = map[string]map[string][]string{
	"desktop": {
		"动漫": {"二次元", "百炼成神", "初音未来", "春物雪乃", "刀剑神域", "斗破苍穹", "哆啦A梦", "鬼灭之刃",
			"间谍过家家", "剑来", "进击的巨人", "蜡笔小新", "蕾姆", "猫和老鼠", "名侦探柯南", "神奇宝贝",
			"完美世界", "喜洋洋与灰太狼", "仙逆", "小埋", "新世纪福音战士", "紫罗兰永恒花园", "罪恶王冠"},
		"风景":   {"城市", "海滨", "湖泊", "花卉", "建筑", "日落", "天空", "星空", "雪山"},
		"游戏":   {"艾尔登法环", "崩坏", "通用", "英雄联盟", "原神"},
		"萌宠":   {"狗狗", "猫咪", "兔兔"},
		"人像":   {"氛围感", "国风", "魅力", "明星", "清新", "张凌赫"},
		"影视":   {"疯狂动物城", "海绵宝宝"},
		"插画":   {"场景", "创意", "国风", "卡通", "通用", "文字"},
		"政治":   {"通用"},
		"IP形象": {"粉红兔", "凯蒂猫", "水豚噜噜", "通用", "乌萨奇", "线条小狗"},
	},
	"mobile": {
		"动漫":   {"初音未来", "二次元", "海贼王", "蜡笔小新", "名侦探柯南", "你的名字", "通用", "夏目友人帐"},
		"风景":   {"冬日雪景", "海滨", "花卉", "建筑", "森林", "星空", "雪山"},
		"插画":   {"创意", "风景", "国风", "少女与猫"},
		"创意":   {"爱国主题", "抽象", "文字"},
		"萌宠":   {"狗狗", "猫咪"},
		"人像":   {"迪丽热巴", "氛围感", "古装", "魅力", "明星", "清新", "日系", "王楚然", "易烊千玺", "张凌赫"},
		"影视":   {"疯狂动物城", "海绵宝宝", "柯南", "漫威", "猫和老鼠"},
		"IP形象": {"粉红兔", "卡通角色", "水豚噜噜", "乌萨奇", "小八"},
	},
	"avatar": {
		"动漫": {"哆啦A梦", "海绵宝宝", "海贼王", "蜡笔小新", "猫和老鼠", "日漫", "神奇宝贝", "天线宝宝",
			"通用", "喜羊羊与灰太狼", "樱桃小丸子"},
		"表情包":  {"搞怪"},
		"插画":   {"创意", "二次元"},
		"萌宠":   {"狗狗", "猫咪"},
		"人像":   {"背影", "氛围感", "卡通简笔画", "甜妹"},
		"IP形象": {"库洛米", "牛牛黎深&噜噜", "水豚噜噜", "乌萨奇", "小八", "小熊", "Hello Kitty"},
	},
}

// SeriesKeys returns the known top-level series.
func SeriesKeys() []string {
	return []string{"desktop", "mobile", "avatar"}
}

// Get returns the series descriptor.
func Get(key string) (Series, bool) {
	s, ok := series[key]
	return s, ok
}

// Subcategories returns the second-level categories of a series.
func Subcategories(seriesKey string) []Subcategory {
	return series[seriesKey].Subcategories
}

// SubcategoryValues returns just the second-level category names.
func SubcategoryValues(seriesKey string) []string {
	subs := Subcategories(seriesKey)
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.Value)
	}
	return out
}

// ThirdLevel returns the third-level categories under a series and
// secondary. Unknown pairs fall back to the catch-all.
func ThirdLevel(seriesKey, secondary string) []string {
	if levels, ok := thirdLevel[seriesKey][secondary]; ok {
		return append([]string(nil), levels...)
	}
	return []string{Fallback}
}

// Valid reports whether the series/secondary pair exists in the taxonomy.
func Valid(seriesKey, secondary string) bool {
	for _, s := range Subcategories(seriesKey) {
		if s.Value == secondary {
			return true
		}
	}
	return false
}
