package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gametrack_v1_202601/internal/api/dto"
	"gametrack_v1_202601/internal/model"
	"gametrack_v1_202601/internal/repository"
)

// ==================== 测试辅助 ====================

func setupAccountTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.SysUser{}, &model.SharedAccount{}, &model.UserAccountRelation{},
		&model.ProgressTemplate{}, &model.ProgressRecord{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func newTestAccountService(db *gorm.DB) *SharedAccountService {
	relationRepo := repository.NewRelationRepository(db)
	return NewSharedAccountService(
		repository.NewSharedAccountRepository(db),
		relationRepo,
		repository.NewUserRepository(db),
		NewPermissionService(relationRepo),
	)
}

func seedUser(t *testing.T, db *gorm.DB, id int64, username string) {
	user := &model.SysUser{
		BaseModel: model.BaseModel{ID: id},
		Username:  username,
		Password:  "hashed",
		Role:      model.UserRoleUser,
		IsActive:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("写入用户失败: %v", err)
	}
}

func mustCreateAccount(t *testing.T, svc *SharedAccountService, name, display, server string, creatorID int64) {
	_, err := svc.CreateSharedAccount(context.Background(), &dto.AccountCreateReq{
		AccountName: name,
		DisplayName: display,
		ServerName:  server,
	}, creatorID)
	if err != nil {
		t.Fatalf("创建账号 %s 失败: %v", name, err)
	}
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

// ==================== 账号生命周期 ====================

func TestSharedAccountService_CreateAndSelfAccess(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	ctx := context.Background()
	seedUser(t, db, 1, "u1")

	mustCreateAccount(t, svc, "guild1", "Guild One", "ServerA", 1)

	detail, err := svc.GetSharedAccountDetail(ctx, "guild1", 1)
	if err != nil {
		t.Fatalf("创建者应能查看详情: %v", err)
	}
	if detail.UserCount != 1 {
		t.Errorf("user_count = %d, want 1", detail.UserCount)
	}
	if len(detail.Relations) != 1 || detail.Relations[0].RelationType != model.RelationOwner {
		t.Errorf("创建者关联应为 owner: %+v", detail.Relations)
	}
	perms := detail.Relations[0].Permissions()
	if !perms.Read || !perms.Write || !perms.Delete {
		t.Errorf("创建者应持有全部权限: %+v", perms)
	}
}

func TestSharedAccountService_CreateDuplicateName(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	seedUser(t, db, 1, "u1")
	seedUser(t, db, 2, "u2")

	mustCreateAccount(t, svc, "guild1", "Guild One", "ServerA", 1)

	_, err := svc.CreateSharedAccount(context.Background(), &dto.AccountCreateReq{
		AccountName: "guild1",
	}, 2)
	if !errors.Is(err, ErrAccountExists) {
		t.Errorf("重名创建应返回 ErrAccountExists, got %v", err)
	}
}

// 账号行和 owner 关联行要么都落库要么都回滚
func TestSharedAccountService_CreateAtomicity(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	ctx := context.Background()
	seedUser(t, db, 1, "u1")

	// 预埋一条会让 owner 关联插入撞唯一索引的脏数据，
	// 账号插入成功后关联插入失败，整个事务必须回滚
	dirty := &model.UserAccountRelation{
		UserID:       1,
		AccountName:  "guild1",
		RelationType: model.RelationContributor,
		JoinedAt:     time.Now(),
	}
	if err := db.Create(dirty).Error; err != nil {
		t.Fatalf("预埋数据失败: %v", err)
	}

	_, err := svc.CreateSharedAccount(ctx, &dto.AccountCreateReq{AccountName: "guild1"}, 1)
	if err == nil {
		t.Fatal("创建应因关联插入冲突失败")
	}

	var accountCount int64
	db.Model(&model.SharedAccount{}).Where("account_name = ?", "guild1").Count(&accountCount)
	if accountCount != 0 {
		t.Errorf("事务回滚后不应残留账号行, count = %d", accountCount)
	}
}

func TestSharedAccountService_UpdatePartial(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	ctx := context.Background()
	seedUser(t, db, 1, "u1")

	mustCreateAccount(t, svc, "guild1", "Guild One", "ServerA", 1)

	// 只更新 display_name，其他字段保持原值
	account, err := svc.UpdateSharedAccount(ctx, "guild1", &dto.AccountUpdateReq{
		DisplayName: strPtr("Renamed"),
	}, 1)
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if account.DisplayName != "Renamed" || account.ServerName != "ServerA" || !account.IsActive {
		t.Errorf("部分更新结果异常: %+v", account)
	}

	// 软停用
	if _, err := svc.UpdateSharedAccount(ctx, "guild1", &dto.AccountUpdateReq{IsActive: boolPtr(false)}, 1); err != nil {
		t.Fatalf("停用失败: %v", err)
	}
	var stored model.SharedAccount
	db.Where("account_name = ?", "guild1").First(&stored)
	if stored.IsActive {
		t.Error("is_active 应为 false")
	}
	if stored.DisplayName != "Renamed" {
		t.Errorf("display_name 被意外改写: %s", stored.DisplayName)
	}
}

func TestSharedAccountService_DeleteCascade(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	ctx := context.Background()
	seedUser(t, db, 1, "u1")
	seedUser(t, db, 2, "u2")

	mustCreateAccount(t, svc, "guild1", "Guild One", "ServerA", 1)
	if _, err := svc.AddUserToAccount(ctx, "guild1", &dto.AddUserReq{UserID: 2}, 1); err != nil {
		t.Fatalf("添加成员失败: %v", err)
	}

	if err := svc.DeleteSharedAccount(ctx, "guild1", 1); err != nil {
		t.Fatalf("删除失败: %v", err)
	}

	var accountCount, relationCount int64
	db.Model(&model.SharedAccount{}).Count(&accountCount)
	db.Model(&model.UserAccountRelation{}).Count(&relationCount)
	if accountCount != 0 {
		t.Errorf("账号行未删除, count = %d", accountCount)
	}
	if relationCount != 0 {
		t.Errorf("关联行未级联删除, count = %d", relationCount)
	}
}

// ==================== 可见性与权限门禁 ====================

func TestSharedAccountService_VisibilityIsRelationGated(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	ctx := context.Background()
	seedUser(t, db, 1, "u1")
	seedUser(t, db, 3, "u3")

	mustCreateAccount(t, svc, "guild1", "Guild One", "ServerA", 1)

	// 无关联用户在列表里看不到账号
	resp, err := svc.GetUserAccessibleAccounts(ctx, 3, &dto.AccountListReq{Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("列表查询失败: %v", err)
	}
	if resp.Total != 0 || len(resp.List) != 0 {
		t.Errorf("无关联用户不应看到任何账号: total=%d", resp.Total)
	}

	// 详情直接拒绝
	_, err = svc.GetSharedAccountDetail(ctx, "guild1", 3)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("无关联用户查详情应返回 ErrPermissionDenied, got %v", err)
	}

	// 不存在的账号同样表现为没有权限，不泄露账号是否存在
	_, err = svc.GetSharedAccountDetail(ctx, "ghost", 3)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("不存在账号应同样返回 ErrPermissionDenied, got %v", err)
	}
}

func TestSharedAccountService_ListSearchAndInactive(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	ctx := context.Background()
	seedUser(t, db, 1, "u1")

	mustCreateAccount(t, svc, "guild1", "Alpha Guild", "ServerA", 1)
	mustCreateAccount(t, svc, "guild2", "Beta Guild", "ServerB", 1)
	mustCreateAccount(t, svc, "team3", "Gamma Team", "ServerA", 1)

	// 大小写不敏感搜索，OR 匹配三个字段
	resp, err := svc.GetUserAccessibleAccounts(ctx, 1, &dto.AccountListReq{Page: 1, PageSize: 20, Keyword: "GUILD"})
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("keyword=GUILD total = %d, want 2", resp.Total)
	}

	resp, _ = svc.GetUserAccessibleAccounts(ctx, 1, &dto.AccountListReq{Page: 1, PageSize: 20, Keyword: "servera"})
	if resp.Total != 2 {
		t.Errorf("keyword=servera total = %d, want 2", resp.Total)
	}

	// 停用后默认不可见，include_inactive 时可见
	if _, err := svc.UpdateSharedAccount(ctx, "guild2", &dto.AccountUpdateReq{IsActive: boolPtr(false)}, 1); err != nil {
		t.Fatalf("停用失败: %v", err)
	}
	resp, _ = svc.GetUserAccessibleAccounts(ctx, 1, &dto.AccountListReq{Page: 1, PageSize: 20})
	if resp.Total != 2 {
		t.Errorf("停用后 total = %d, want 2", resp.Total)
	}
	resp, _ = svc.GetUserAccessibleAccounts(ctx, 1, &dto.AccountListReq{Page: 1, PageSize: 20, IncludeInactive: true})
	if resp.Total != 3 {
		t.Errorf("include_inactive total = %d, want 3", resp.Total)
	}

	// 列表带成员数
	for _, row := range resp.List {
		if row.UserCount != 1 {
			t.Errorf("账号 %s user_count = %d, want 1", row.AccountName, row.UserCount)
		}
	}
}

func TestSharedAccountService_ContributorWriteNoDelete(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	ctx := context.Background()
	seedUser(t, db, 1, "u1")
	seedUser(t, db, 2, "u2")

	mustCreateAccount(t, svc, "guild1", "Guild One", "ServerA", 1)
	if _, err := svc.AddUserToAccount(ctx, "guild1", &dto.AddUserReq{UserID: 2}, 1); err != nil {
		t.Fatalf("添加成员失败: %v", err)
	}

	// contributor 可写
	if _, err := svc.UpdateSharedAccount(ctx, "guild1", &dto.AccountUpdateReq{DisplayName: strPtr("ByU2")}, 2); err != nil {
		t.Errorf("contributor 应可更新账号: %v", err)
	}

	// contributor 不可删
	err := svc.DeleteSharedAccount(ctx, "guild1", 2)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("contributor 删除应返回 ErrPermissionDenied, got %v", err)
	}
}

// ==================== 成员管理 ====================

func TestSharedAccountService_AddUser(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	ctx := context.Background()
	seedUser(t, db, 1, "u1")
	seedUser(t, db, 2, "u2")
	seedUser(t, db, 3, "u3")

	mustCreateAccount(t, svc, "guild1", "Guild One", "ServerA", 1)

	// 默认 contributor
	rel, err := svc.AddUserToAccount(ctx, "guild1", &dto.AddUserReq{UserID: 2}, 1)
	if err != nil {
		t.Fatalf("添加成员失败: %v", err)
	}
	if rel.RelationType != model.RelationContributor {
		t.Errorf("relation_type = %s, want contributor", rel.RelationType)
	}
	perms := rel.Permissions()
	if !perms.Read || !perms.Write || perms.Delete {
		t.Errorf("contributor 默认权限异常: %+v", perms)
	}

	// 重复添加违反唯一约束
	_, err = svc.AddUserToAccount(ctx, "guild1", &dto.AddUserReq{UserID: 2}, 1)
	if !errors.Is(err, ErrRelationExists) {
		t.Errorf("重复添加应返回 ErrRelationExists, got %v", err)
	}

	// 非 owner 不能加人，哪怕有写权限
	_, err = svc.AddUserToAccount(ctx, "guild1", &dto.AddUserReq{UserID: 3}, 2)
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("contributor 加人应返回 ErrNotOwner, got %v", err)
	}

	// 目标用户不存在
	_, err = svc.AddUserToAccount(ctx, "guild1", &dto.AddUserReq{UserID: 99}, 1)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("不存在用户应返回 ErrUserNotFound, got %v", err)
	}
}

func TestSharedAccountService_AddUserPermissionOverride(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	ctx := context.Background()
	seedUser(t, db, 1, "u1")
	seedUser(t, db, 2, "u2")

	mustCreateAccount(t, svc, "guild1", "Guild One", "ServerA", 1)

	// contributor + 显式 delete:true：默认填充后再按字段覆盖
	rel, err := svc.AddUserToAccount(ctx, "guild1", &dto.AddUserReq{
		UserID:      2,
		Permissions: &dto.PermissionReq{Delete: boolPtr(true)},
	}, 1)
	if err != nil {
		t.Fatalf("添加成员失败: %v", err)
	}
	perms := rel.Permissions()
	if !perms.Read || !perms.Write || !perms.Delete {
		t.Errorf("覆盖合并结果 = %+v, want 全开", perms)
	}
	if rel.RelationType != model.RelationContributor {
		t.Errorf("覆盖 delete 不应改变关系类型: %s", rel.RelationType)
	}
}

func TestSharedAccountService_UpdateUserPermissionsPartialMerge(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	ctx := context.Background()
	seedUser(t, db, 1, "u1")
	seedUser(t, db, 2, "u2")

	mustCreateAccount(t, svc, "guild1", "Guild One", "ServerA", 1)
	if _, err := svc.AddUserToAccount(ctx, "guild1", &dto.AddUserReq{UserID: 2}, 1); err != nil {
		t.Fatalf("添加成员失败: %v", err)
	}

	// 只改 write，read/delete 保持原值
	rel, err := svc.UpdateUserPermissions(ctx, "guild1", 2, &dto.PermissionReq{Write: boolPtr(false)}, 1)
	if err != nil {
		t.Fatalf("更新权限失败: %v", err)
	}
	perms := rel.Permissions()
	if perms.Write {
		t.Error("write 应已被收回")
	}
	if !perms.Read || perms.Delete {
		t.Errorf("未指定字段被意外改写: %+v", perms)
	}
	if rel.RelationType != model.RelationContributor {
		t.Errorf("权限更新不应改变关系类型: %s", rel.RelationType)
	}

	// 非 owner 不能改权限
	_, err = svc.UpdateUserPermissions(ctx, "guild1", 1, &dto.PermissionReq{Read: boolPtr(false)}, 2)
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("contributor 改权限应返回 ErrNotOwner, got %v", err)
	}

	// 无关联的目标用户
	_, err = svc.UpdateUserPermissions(ctx, "guild1", 99, &dto.PermissionReq{}, 1)
	if !errors.Is(err, ErrRelationNotFound) {
		t.Errorf("无关联目标应返回 ErrRelationNotFound, got %v", err)
	}
}

func TestSharedAccountService_RemoveUser(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	ctx := context.Background()
	seedUser(t, db, 1, "u1")
	seedUser(t, db, 2, "u2")
	seedUser(t, db, 3, "u3")

	mustCreateAccount(t, svc, "guild1", "Guild One", "ServerA", 1)
	if _, err := svc.AddUserToAccount(ctx, "guild1", &dto.AddUserReq{UserID: 2}, 1); err != nil {
		t.Fatalf("添加成员失败: %v", err)
	}
	if _, err := svc.AddUserToAccount(ctx, "guild1", &dto.AddUserReq{UserID: 3}, 1); err != nil {
		t.Fatalf("添加成员失败: %v", err)
	}

	// 非 owner 不能移除别人
	err := svc.RemoveUserFromAccount(ctx, "guild1", 3, 2)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("contributor 移除他人应返回 ErrPermissionDenied, got %v", err)
	}

	// owner 可以移除成员
	if err := svc.RemoveUserFromAccount(ctx, "guild1", 3, 1); err != nil {
		t.Errorf("owner 移除成员失败: %v", err)
	}

	// 无关联的目标
	err = svc.RemoveUserFromAccount(ctx, "guild1", 3, 1)
	if !errors.Is(err, ErrRelationNotFound) {
		t.Errorf("重复移除应返回 ErrRelationNotFound, got %v", err)
	}
}

// 非 owner 也可以把自己移出账号
func TestSharedAccountService_SelfRemovalAlwaysAllowed(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	ctx := context.Background()
	seedUser(t, db, 1, "u1")
	seedUser(t, db, 2, "u2")

	mustCreateAccount(t, svc, "guild1", "Guild One", "ServerA", 1)
	if _, err := svc.AddUserToAccount(ctx, "guild1", &dto.AddUserReq{UserID: 2}, 1); err != nil {
		t.Fatalf("添加成员失败: %v", err)
	}

	if err := svc.RemoveUserFromAccount(ctx, "guild1", 2, 2); err != nil {
		t.Errorf("成员自移除应成功: %v", err)
	}

	rel := &model.UserAccountRelation{}
	err := db.Where("user_id = ? AND account_name = ?", 2, "guild1").First(rel).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Error("自移除后关联行应不存在")
	}
}

// 最后所有者保护：移除唯一 owner 必须失败且状态不变
func TestSharedAccountService_LastOwnerProtection(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	ctx := context.Background()
	seedUser(t, db, 1, "u1")
	seedUser(t, db, 2, "u2")

	mustCreateAccount(t, svc, "guild1", "Guild One", "ServerA", 1)
	if _, err := svc.AddUserToAccount(ctx, "guild1", &dto.AddUserReq{UserID: 2}, 1); err != nil {
		t.Fatalf("添加成员失败: %v", err)
	}

	err := svc.RemoveUserFromAccount(ctx, "guild1", 1, 1)
	if !errors.Is(err, ErrLastOwner) {
		t.Errorf("移除唯一 owner 应返回 ErrLastOwner, got %v", err)
	}

	// 状态保持不变
	var count int64
	db.Model(&model.UserAccountRelation{}).
		Where("account_name = ? AND relation_type = ?", "guild1", model.RelationOwner).
		Count(&count)
	if count != 1 {
		t.Errorf("owner 数 = %d, want 1", count)
	}

	// 第二个 owner 存在时可以移除
	db.Model(&model.UserAccountRelation{}).
		Where("account_name = ? AND user_id = ?", "guild1", 2).
		Update("relation_type", model.RelationOwner)
	if err := svc.RemoveUserFromAccount(ctx, "guild1", 1, 1); err != nil {
		t.Errorf("存在第二个 owner 时移除应成功: %v", err)
	}
}

func TestSharedAccountService_GetAccountUsers(t *testing.T) {
	db := setupAccountTestDB(t)
	svc := newTestAccountService(db)
	ctx := context.Background()
	seedUser(t, db, 1, "alice")
	seedUser(t, db, 2, "bob")
	seedUser(t, db, 3, "carol")

	mustCreateAccount(t, svc, "guild1", "Guild One", "ServerA", 1)
	if _, err := svc.AddUserToAccount(ctx, "guild1", &dto.AddUserReq{UserID: 2}, 1); err != nil {
		t.Fatalf("添加成员失败: %v", err)
	}
	if _, err := svc.AddUserToAccount(ctx, "guild1", &dto.AddUserReq{UserID: 3}, 1); err != nil {
		t.Fatalf("添加成员失败: %v", err)
	}

	resp, err := svc.GetAccountUsers(ctx, "guild1", 1, &dto.AccountUserListReq{Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("成员列表查询失败: %v", err)
	}
	if resp.Total != 3 {
		t.Fatalf("total = %d, want 3", resp.Total)
	}
	// 按加入时间升序，创建者最早
	if resp.List[0].UserID != 1 {
		t.Errorf("首位成员应是创建者, got user_id = %d", resp.List[0].UserID)
	}
	if resp.List[0].User == nil || resp.List[0].User.Username != "alice" {
		t.Error("成员列表应带用户信息")
	}

	// 用户名搜索
	resp, _ = svc.GetAccountUsers(ctx, "guild1", 1, &dto.AccountUserListReq{Page: 1, PageSize: 20, Keyword: "bob"})
	if resp.Total != 1 || resp.List[0].UserID != 2 {
		t.Errorf("搜索 bob 结果异常: total=%d", resp.Total)
	}

	// 无读权限者被拒绝
	seedUser(t, db, 9, "mallory")
	_, err = svc.GetAccountUsers(ctx, "guild1", 9, &dto.AccountUserListReq{Page: 1, PageSize: 20})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("无关联用户查成员列表应返回 ErrPermissionDenied, got %v", err)
	}
}
