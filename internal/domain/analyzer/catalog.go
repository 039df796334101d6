package analyzer

import "github.com/corey/titlelab/internal/ports"

// Candidate is one entry of the recommendation board.
type Candidate struct {
	ID    string
	Title string
	Group ports.Group
	Tag   string
}

// Catalog holds the candidate titles shown on the recommendation board,
// grouped by listing lifecycle, optimization goal, and keyword angle.
var Catalog = []Candidate{
	{"lc-1", "摩登主妇菜板防霉抗菌家用厨房专用切菜切水果小案板辅食塑料砧板", ports.GroupLifecycle, "新品期"},
	{"lc-2", "抗菌防霉菜板家用厨房专用切菜案板实木加厚大号不锈钢双面砧板", ports.GroupLifecycle, "成长期"},
	{"lc-3", "德国进口304不锈钢菜板家用抗菌防霉切菜板案板厨房专用砧板高级", ports.GroupLifecycle, "成熟期"},
	{"goal-1", "菜板家用防霉抗菌切菜板案板厨房专用实木竹制大号砧板刀板整竹", ports.GroupGoal, "流量优先"},
	{"goal-2", "德国乌檀木菜板实木家用抗菌防霉切菜板案板整木厨房专用砧板", ports.GroupGoal, "转化优先"},
	{"goal-3", "双面不锈钢菜板家用抗菌防霉切菜板案板厨房专用切水果砧板304", ports.GroupGoal, "均衡型"},
	{"other-0", "宿舍学生小菜板迷你切水果案板家用塑料防霉抗菌厨房切菜砧板", ports.GroupOther, "场景词"},
	{"other-1", "9.9包邮家用切菜板塑料防霉抗菌厨房案板切水果小砧板宿舍用", ports.GroupOther, "价格定位"},
	{"other-2", "整竹菜板楠竹实木家用加厚切菜板案板厨房专用抗菌防霉大号砧板", ports.GroupOther, "材质词"},
	{"other-3", "多功能切菜板家用防霉抗菌双面不锈钢案板厨房专用解冻板砧板", ports.GroupOther, "功能词"},
	{"other-4", "宝宝辅食菜板婴儿专用迷你切水果小案板家用抗菌防霉塑料砧板", ports.GroupOther, "人群词"},
}

// CustomTag marks analyses of user-entered titles.
const CustomTag = "自定义"
