// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompts holds the static text SoulForge sends to and shows around
// the model: the system instruction, the Soulslike module library and the
// canned notices.
package prompts

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// SYSTEM INSTRUCTION
// =============================================================================

// systemTemplate is interpolated with the target engine version at every
// occurrence of %[1]s.
const systemTemplate = `
你是一位世界级的虚幻引擎 (Unreal Engine) 专家，专注于版本 **Unreal Engine %[1]s**。
你的任务是帮助用户开发高质量的 C++ 游戏代码和架构，特别是针对"魂类" (Soulslike) 游戏。

**自动更新与适应机制**:
- 当前目标引擎版本为: **UE %[1]s**。
- 如果用户询问的特性在当前版本有重大变更 (例如 UE5.1 的 Enhanced Input, UE5.4 的 Motion Matching, UE5.5 的 MegaLights)，请务必使用**该版本最新**的 API。
- 如果你不确定新版本的 API，请优先使用通用且稳定的 C++ 架构，或明确告知用户需要查阅特定文档。

**核心行为准则 (CRITICAL)**:
在回答代码相关问题时，严格遵守以下结构：

1. **项目结构建议 (Project Structure)**:
   - 针对 UE %[1]s 的模块化建议 (Public/Private 文件夹结构)。
   - 必要的类继承关系。

2. **关键注意事项 (Pre-requisites)**:
   - **Build.cs 依赖**: 列出具体模块 (如 "EnhancedInput", "MotionWarping")。
   - **编辑器设置**: 针对 %[1]s 的特定设置 (例如 Project Settings -> Input)。
   - **网络复制**: 魂类游戏通常需要多人联机，请简述 Replication 策略。

3. **代码实现 (Implementation)**:
   - 生产就绪的 C++ 代码 (.h 和 .cpp)。
   - 使用 Markdown 格式。
   - 中文注释。

代码风格要求：
- 优先使用 Modern C++ (auto, lambda, smart pointers)。
- 严格遵循 UE 编码规范 (Prefixes: A, U, F, E, I)。
- 逻辑复杂处使用 GameplayAbilitySystem (GAS) 或 GameplayTags。
`

// SystemInstruction returns the system instruction for the given target
// engine version, e.g. "5.4".
func SystemInstruction(ueVersion string) string {
	return fmt.Sprintf(systemTemplate, ueVersion)
}

// =============================================================================
// ENGINE VERSIONS
// =============================================================================

// DefaultUEVersion is the engine version targeted out of the box.
const DefaultUEVersion = "5.4"

// UEVersions lists the selectable engine versions, oldest first.
var UEVersions = []string{"5.0", "5.1", "5.2", "5.3", "5.4", "5.5"}

// IsKnownUEVersion reports whether v is one of UEVersions.
func IsKnownUEVersion(v string) bool {
	for _, known := range UEVersions {
		if v == known {
			return true
		}
	}
	return false
}

// =============================================================================
// MODULE LIBRARY
// =============================================================================

// Module is a canned request for one Soulslike gameplay system.
type Module struct {
	Key         string
	Title       string
	Prompt      string
	Icon        string
	Description string
}

var modules = map[string]Module{
	"CHARACTER_BASE": {
		Key:         "CHARACTER_BASE",
		Title:       "角色基础框架 (Character Base)",
		Prompt:      "请为当前选择的 Unreal Engine 版本创建一个魂类游戏基础角色类 (ASoulCharacter)。包含：\n1. 头文件 (.h) 和源文件 (.cpp) 结构。\n2. 适配当前版本的输入绑定（如 Enhanced Input）。\n3. 核心属性：生命值 (Health)、精力值 (Stamina) 的定义。\n4. 用于管理状态（如是否在攻击、是否在翻滚）的 boolean 或 GameplayTag 接口。",
		Icon:        "user",
		Description: "生成包含移动、属性和输入绑定的核心 C++ 类。",
	},
	"COMBAT_SYSTEM": {
		Key:         "COMBAT_SYSTEM",
		Title:       "战斗系统 (Combat System)",
		Prompt:      "请实现一个基于 UE C++ 的魂类战斗核心。需要：\n1. 轻攻击与重攻击的函数入口。\n2. 简单的连招计数器 (Combo Counter) 逻辑。\n3. 消耗精力值的检查函数 (CanAttack)。\n4. 武器碰撞检测的思路（推荐使用 LineTrace 或 Collision Profile）。",
		Icon:        "sword",
		Description: "攻击逻辑、连招处理与伤害检测基础。",
	},
	"AI_BOSS": {
		Key:         "AI_BOSS",
		Title:       "Boss AI 框架 (Boss AI)",
		Prompt:      "请设计一个简单的魂类 Boss AI 架构。包括：\n1. AIController 类定义。\n2. 行为树 (Behavior Tree) 的主要节点建议 (Selector/Sequence)。\n3. 一个 C++ 自定义 Task 示例：用于执行特定攻击（如跳劈）。\n4. 感知组件 (AIPerception) 的初始化代码。",
		Icon:        "skull",
		Description: "行为树、AIController 与感知系统配置。",
	},
	"INVENTORY": {
		Key:         "INVENTORY",
		Title:       "物品与装备 (Inventory)",
		Prompt:      "请构建一个轻量级的物品系统。需要：\n1. UItemBase 数据资产类 (UDataAsset) 用于定义物品属性。\n2. UInventoryComponent 组件类，用于管理角色背包。\n3. 添加、移除物品的函数声明。\n4. 装备武器时的逻辑（AttachToComponent 到 Socket）。",
		Icon:        "backpack",
		Description: "基于 DataAsset 的物品定义与背包组件。",
	},
}

// moduleOrder is the display order of the library.
var moduleOrder = []string{"CHARACTER_BASE", "COMBAT_SYSTEM", "AI_BOSS", "INVENTORY"}

// Modules returns the module library in display order.
func Modules() []Module {
	out := make([]Module, 0, len(moduleOrder))
	for _, key := range moduleOrder {
		out = append(out, modules[key])
	}
	return out
}

// ModuleKeys returns the lower-case names accepted by LookupModule, sorted.
func ModuleKeys() []string {
	keys := make([]string, 0, len(modules))
	for k := range modules {
		keys = append(keys, strings.ToLower(k))
	}
	sort.Strings(keys)
	return keys
}

// LookupModule finds a module by key, case-insensitively. Dashes are
// accepted in place of underscores ("ai-boss").
func LookupModule(name string) (Module, bool) {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	m, ok := modules[key]
	return m, ok
}

// VersionedPrompt appends the target engine version to a module prompt.
func VersionedPrompt(prompt, ueVersion string) string {
	return fmt.Sprintf("%s\n(Target Engine Version: UE %s)", prompt, ueVersion)
}

// =============================================================================
// NOTICES
// =============================================================================

// Welcome is shown at the top of every new chat.
const Welcome = "## 欢迎来到 SoulForge \n\n我是您的虚幻引擎 (Unreal Engine) 架构师。我可以为您生成魂类游戏的核心 C++ 代码、建议项目结构或解答引擎技术难题。\n\n**当前配置**: \n- 默认引擎版本: **UE 5.4**\n- 默认模型: **Gemini 2.5 Flash** (支持联网搜索)\n\n输入 /help 查看命令，或使用 /set 修改引擎版本或接入其他模型。"

// SettingsSaved is the notice appended after settings are saved. coreName is
// "Gemini" for the hosted provider or the custom model name.
func SettingsSaved(ueVersion, coreName string) string {
	return fmt.Sprintf("**系统更新**: 配置已保存。\n- 目标引擎: UE %s\n- AI 核心: %s", ueVersion, coreName)
}

// TurnFailed replaces the assistant reply when a turn fails unexpectedly.
const TurnFailed = "**发生错误**: 无法连接到 AI 服务，请检查网络或 API Key 设置。"
